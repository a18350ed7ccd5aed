package visibility

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bibin-skaria/vislayers/layers"
)

// Config holds propagation settings.
type Config struct {
	// MaxVisits caps the number of node visits in a single pass. Zero means
	// no limit.
	MaxVisits int
	// Logger receives soft-failure and pass events. Nil discards them.
	Logger logrus.FieldLogger
	// Metrics, when set, records every pass.
	Metrics *Metrics
}

// Propagator recomputes the computed layers of stale nodes and their
// descendants.
//
// A Propagator is not safe for concurrent use.
type Propagator struct {
	store   Store
	tree    Hierarchy
	config  Config
	log     logrus.FieldLogger
	pending []frame
}

// frame is a node waiting to be resolved against the layers its parent now
// holds.
type frame struct {
	id        NodeID
	inherited layers.Set
}

// NewPropagator creates a Propagator over store and tree.
func NewPropagator(store Store, tree Hierarchy, config Config) *Propagator {
	log := config.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Propagator{
		store:  store,
		tree:   tree,
		config: config,
		log:    log.WithField("component", "propagator"),
	}
}

// Update drains feed and propagates from the nodes it reports.
func (p *Propagator) Update(feed ChangeFeed) Stats {
	return p.Propagate(feed.DrainStale())
}

// Propagate restores the computed layers of every node in stale and of every
// descendant whose computed layers change as a result.
//
// Propagate never fails. Nodes or parents that cannot be resolved are skipped
// and counted in Stats.Missing.
func (p *Propagator) Propagate(stale []NodeID) Stats {
	start := time.Now()
	stats := Stats{Stale: len(stale)}

	for _, id := range stale {
		if p.exhausted(&stats) {
			break
		}
		declared, current, ok := p.store.Layers(id)
		if !ok {
			stats.Missing++
			p.log.WithField("node", id).Debug("Stale node has no layer record, skipping")
			continue
		}
		stats.Visited++

		resolved := declared.Resolve(p.parentLayers(id, &stats))
		// An unchanged node needs no push. This also skips nodes an
		// ancestor's push already brought up to date earlier in this pass.
		if resolved.Equal(current) {
			stats.Pruned++
			continue
		}
		p.store.SetComputed(id, resolved)
		stats.Updated++
		p.descend(id, resolved, &stats)
	}

	if stats.Truncated {
		p.log.WithFields(logrus.Fields{
			"max_visits": p.config.MaxVisits,
			"visited":    stats.Visited,
		}).Warn("Propagation pass truncated at visit limit")
	}
	duration := time.Since(start)
	if p.config.Metrics != nil {
		p.config.Metrics.Record(stats, duration)
	}
	p.log.WithFields(logrus.Fields{
		"stale":    stats.Stale,
		"visited":  stats.Visited,
		"updated":  stats.Updated,
		"pruned":   stats.Pruned,
		"missing":  stats.Missing,
		"duration": duration.String(),
	}).Debug("Propagation pass complete")
	return stats
}

// parentLayers returns the computed layers id inherits. Roots and nodes with
// an unresolvable parent inherit the empty set.
func (p *Propagator) parentLayers(id NodeID, stats *Stats) layers.Set {
	parent, ok := p.tree.Parent(id)
	if !ok {
		return layers.Empty()
	}
	_, computed, ok := p.store.Layers(parent)
	if !ok {
		stats.Missing++
		p.log.WithFields(logrus.Fields{
			"node":   id,
			"parent": parent,
		}).Debug("Parent has no layer record, inheriting no layers")
		return layers.Empty()
	}
	return computed
}

// descend pushes value into the subtree below root, depth first, using an
// explicit stack of pending frames.
func (p *Propagator) descend(root NodeID, value layers.Set, stats *Stats) {
	p.pending = p.pushChildren(p.pending[:0], root, value)

	for len(p.pending) > 0 {
		if p.exhausted(stats) {
			break
		}
		f := p.pending[len(p.pending)-1]
		p.pending = p.pending[:len(p.pending)-1]

		declared, current, ok := p.store.Layers(f.id)
		if !ok {
			stats.Missing++
			p.log.WithField("node", f.id).Debug("Child has no layer record, pruning branch")
			continue
		}
		stats.Visited++

		resolved := declared.Resolve(f.inherited)
		if resolved.Equal(current) {
			stats.Pruned++
			continue
		}
		p.store.SetComputed(f.id, resolved)
		stats.Updated++
		p.pending = p.pushChildren(p.pending, f.id, resolved)
	}
	clear(p.pending)
	p.pending = p.pending[:0]
}

// pushChildren appends the children of id in reverse so that they are popped
// in hierarchy order.
func (p *Propagator) pushChildren(stack []frame, id NodeID, value layers.Set) []frame {
	children := p.tree.Children(id)
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: children[i], inherited: value})
	}
	return stack
}

func (p *Propagator) exhausted(stats *Stats) bool {
	if p.config.MaxVisits <= 0 || stats.Visited+stats.Missing < p.config.MaxVisits {
		return false
	}
	stats.Truncated = true
	return true
}
