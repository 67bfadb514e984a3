package expression

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/expr-lang/expr/vm"

	"github.com/autobrr/arrmap/pkg/logger"
)

type CompiledExpression struct {
	Program *vm.Program
	Text    string
}

// OrphanEnv is what an orphan ignore rule sees. One env describes one member path
// of an orphaned group.
type OrphanEnv struct {
	Path      string
	Name      string
	Ext       string
	Dir       string
	Size      int64
	RootKind  string
	Root      string
	ModTime   time.Time
	AgeHours  float64
	LinkCount int
}

func NewOrphanEnv(path, root, rootKind string, size int64, modTime time.Time, linkCount int, now time.Time) *OrphanEnv {
	env := &OrphanEnv{
		Path:      path,
		Name:      filepath.Base(path),
		Ext:       strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")),
		Dir:       filepath.Dir(path),
		Size:      size,
		RootKind:  rootKind,
		Root:      root,
		ModTime:   modTime,
		LinkCount: linkCount,
	}
	if !modTime.IsZero() {
		env.AgeHours = now.Sub(modTime).Hours()
	}
	return env
}

var regexCache sync.Map

func (e *OrphanEnv) RegexMatch(pattern string) bool {
	return regexMatch(pattern, e.Path)
}

func (e *OrphanEnv) RegexMatchName(pattern string) bool {
	return regexMatch(pattern, e.Name)
}

func (e *OrphanEnv) HasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}

func (e *OrphanEnv) HasSuffix(s, suffix string) bool {
	return strings.HasSuffix(s, suffix)
}

func (e *OrphanEnv) Contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func regexMatch(pattern, s string) bool {
	var re *regexp2.Regexp
	if cached, ok := regexCache.Load(pattern); ok {
		re = cached.(*regexp2.Regexp)
	} else {
		compiled, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
		if err != nil {
			logger.GetLogger("expression").WithError(err).Errorf("Invalid regex pattern %q", pattern)
			return false
		}
		regexCache.Store(pattern, compiled)
		re = compiled
	}

	match, err := re.MatchString(s)
	if err != nil {
		logger.GetLogger("expression").WithError(err).Errorf("Failed matching regex pattern %q", pattern)
		return false
	}

	return match
}
