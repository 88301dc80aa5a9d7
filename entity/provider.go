// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package entity adapts point stores to the lookup contract used by
// geometry builders: nodes, ways, and relations by id.
//
// Lookups of absent entities fail with errors of kind
// errors.NotExist. Other failures, such as I/O errors or corrupt
// stores, are returned as they are, unless the provider was created
// with LegacyNotFound.
package entity

import (
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/pointstore/blockstore"
	"github.com/grailbio/pointstore/dense"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Provider looks up OSM entities by id.
type Provider interface {
	Node(id osm.NodeID) (*osm.Node, error)
	Way(id osm.WayID) (*osm.Way, error)
	Relation(id osm.RelationID) (*osm.Relation, error)
}

// NodeSource finds node locations by id. It is implemented by
// *blockstore.Store and *shard.Store; DenseNodes adapts dense arrays.
type NodeSource interface {
	Find(id int64) (blockstore.Node, error)
}

// WaySource finds the node references of ways. It is implemented by
// *waystore.Map.
type WaySource interface {
	Way(id osm.WayID) ([]osm.NodeID, error)
}

// DenseNodes is a NodeSource backed by a dense array.
type DenseNodes struct {
	dense.Array
}

// Find implements NodeSource.
func (d DenseNodes) Find(id int64) (blockstore.Node, error) {
	p, err := d.Get(id)
	if err != nil {
		return blockstore.Node{}, err
	}
	return blockstore.Node{ID: id, Lon: p.Lon(), Lat: p.Lat()}, nil
}

// Option configures a StoreProvider.
type Option func(*StoreProvider)

// LegacyNotFound makes the provider report every lookup failure as
// errors.NotExist, as older consumers expect. The original error is
// kept as the cause and logged.
func LegacyNotFound() Option {
	return func(p *StoreProvider) {
		p.legacy = true
	}
}

// StoreProvider is a Provider backed by a node source and, optionally,
// a way source. Relations are never stored. A StoreProvider is safe
// for concurrent use only if its sources are.
type StoreProvider struct {
	nodes  NodeSource
	ways   WaySource
	legacy bool
}

// NewProvider returns a provider that looks up nodes in nodes and
// ways in ways. Ways may be nil, in which case no way is found.
func NewProvider(nodes NodeSource, ways WaySource, opts ...Option) *StoreProvider {
	p := &StoreProvider{nodes: nodes, ways: ways}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Node implements Provider.
func (p *StoreProvider) Node(id osm.NodeID) (*osm.Node, error) {
	n, err := p.nodes.Find(int64(id))
	if err != nil {
		return nil, p.error(err, fmt.Sprintf("entity: node %d", id))
	}
	return &osm.Node{ID: id, Lat: n.Lat, Lon: n.Lon, Visible: true}, nil
}

// Way implements Provider. The returned way's nodes carry only their
// ids; see LocatedWay.
func (p *StoreProvider) Way(id osm.WayID) (*osm.Way, error) {
	if p.ways == nil {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("entity: way %d: ways are not stored", id))
	}
	refs, err := p.ways.Way(id)
	if err != nil {
		return nil, p.error(err, fmt.Sprintf("entity: way %d", id))
	}
	way := &osm.Way{ID: id, Visible: true, Nodes: make(osm.WayNodes, len(refs))}
	for i, ref := range refs {
		way.Nodes[i].ID = ref
	}
	return way, nil
}

// LocatedWay returns the way with the provided id, with the location
// of each of its nodes filled in. LocatedWay fails if any of the
// way's nodes cannot be found.
func (p *StoreProvider) LocatedWay(id osm.WayID) (*osm.Way, error) {
	way, err := p.Way(id)
	if err != nil {
		return nil, err
	}
	for i := range way.Nodes {
		wn := &way.Nodes[i]
		n, err := p.nodes.Find(int64(wn.ID))
		if err != nil {
			return nil, p.error(err, fmt.Sprintf("entity: way %d: node %d", id, wn.ID))
		}
		wn.Lat, wn.Lon = n.Lat, n.Lon
	}
	return way, nil
}

// LineString returns the geometry of the way with the provided id.
func (p *StoreProvider) LineString(id osm.WayID) (orb.LineString, error) {
	way, err := p.LocatedWay(id)
	if err != nil {
		return nil, err
	}
	ls := make(orb.LineString, len(way.Nodes))
	for i, wn := range way.Nodes {
		ls[i] = orb.Point{wn.Lon, wn.Lat}
	}
	return ls, nil
}

// Relation implements Provider. Relations are never stored, so
// Relation always fails with errors.NotExist.
func (p *StoreProvider) Relation(id osm.RelationID) (*osm.Relation, error) {
	return nil, errors.E(errors.NotExist, fmt.Sprintf("entity: relation %d: relations are not stored", id))
}

// Close closes the provider's sources that are io.Closers.
func (p *StoreProvider) Close() error {
	var err error
	for _, src := range []interface{}{p.nodes, p.ways} {
		c, ok := src.(io.Closer)
		if !ok {
			continue
		}
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (p *StoreProvider) error(err error, msg string) error {
	if !p.legacy || IsNotFound(err) {
		return errors.E(err, msg)
	}
	log.Error.Printf("%s: %v", msg, err)
	return errors.E(errors.NotExist, msg, err)
}

// IsNotFound tells whether err reports an absent entity.
func IsNotFound(err error) bool {
	return errors.Is(errors.NotExist, err)
}
