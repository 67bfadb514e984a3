package inventory

import (
	"context"
	"time"
)

type OwnerKind string

const (
	KindTorrent OwnerKind = "torrent"
	KindMovie   OwnerKind = "movie"
	KindEpisode OwnerKind = "episode"
)

// Kinds lists every owner kind in report order.
var Kinds = []OwnerKind{KindTorrent, KindMovie, KindEpisode}

// OwnershipTuple states that an owner claims the file at Path. Path is absolute and
// cleaned so it can be compared to indexed paths with plain string equality.
type OwnershipTuple struct {
	OwnerID string    `json:"owner_id" yaml:"owner_id"`
	Kind    OwnerKind `json:"kind" yaml:"kind"`
	Path    string    `json:"path" yaml:"path"`
	Source  string    `json:"source" yaml:"source"`
}

type File struct {
	Path string
	Size int64
}

// Owner is one torrent, movie or episode file as a collaborator reports it. File
// paths may be relative to BasePath.
type Owner struct {
	ID       string
	Title    string
	BasePath string
	Trackers []string
	Files    []File
}

// Listing is a collaborator's inventory. Problems marks it as partial.
type Listing struct {
	Owners   []Owner
	Problems []string
}

type Source interface {
	Name() string
	Kind() OwnerKind
	Fetch(ctx context.Context) (*Listing, error)
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
	StatusDisabled Status = "disabled"
)

type Health struct {
	Name     string        `json:"name" yaml:"name"`
	Kind     OwnerKind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status   Status        `json:"status" yaml:"status"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Owners   int           `json:"owners" yaml:"owners"`
	Tuples   int           `json:"tuples" yaml:"tuples"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

type OwnerKey struct {
	Kind OwnerKind
	ID   string
}

type OwnerInfo struct {
	ID       string    `json:"id" yaml:"id"`
	Kind     OwnerKind `json:"kind" yaml:"kind"`
	Title    string    `json:"title" yaml:"title"`
	Source   string    `json:"source" yaml:"source"`
	Trackers []string  `json:"trackers,omitempty" yaml:"trackers,omitempty"`
}

type Result struct {
	Tuples    []OwnershipTuple
	Owners    map[OwnerKey]OwnerInfo
	Health    []Health
	Cancelled bool
}

func (r *Result) Owner(kind OwnerKind, id string) (OwnerInfo, bool) {
	o, ok := r.Owners[OwnerKey{Kind: kind, ID: id}]
	return o, ok
}

type Options struct {
	// Timeout bounds each source independently. Zero disables it.
	Timeout time.Duration
	// Mapper applies to every source without an entry in Mappers.
	Mapper  *PathMapper
	Mappers map[string]*PathMapper
}

func (o Options) mapperFor(source string) *PathMapper {
	if m, ok := o.Mappers[source]; ok && m != nil {
		return m
	}
	return o.Mapper
}
