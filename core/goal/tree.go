package goal

import (
	"reflect"
	"sort"
	"time"

	"github.com/trezcool/skillfolio/core"
)

// Recount derives every counter of the tree from its subtopic statuses.
func Recount(g *Goal) {
	g.TotalCategories = len(g.Categories)
	g.TotalTopics, g.CompletedTopics = 0, 0
	g.TotalSubtopics, g.CompletedSubtopics = 0, 0

	for ci := range g.Categories {
		c := &g.Categories[ci]
		c.TotalTopics, c.CompletedTopics = len(c.Topics), 0
		c.TotalSubtopics, c.CompletedSubtopics = 0, 0

		for ti := range c.Topics {
			t := &c.Topics[ti]
			t.TotalSubtopics, t.CompletedSubtopics = len(t.Subtopics), 0
			for _, s := range t.Subtopics {
				if s.Status == StatusCompleted {
					t.CompletedSubtopics++
				}
			}
			if t.IsCompleted() {
				c.CompletedTopics++
			}
			c.TotalSubtopics += t.TotalSubtopics
			c.CompletedSubtopics += t.CompletedSubtopics
		}

		g.TotalTopics += c.TotalTopics
		g.CompletedTopics += c.CompletedTopics
		g.TotalSubtopics += c.TotalSubtopics
		g.CompletedSubtopics += c.CompletedSubtopics
	}
	g.Progress = core.Percent(g.CompletedSubtopics, g.TotalSubtopics)
}

// CountersConsistent reports whether g's stored counters match a live recount.
func CountersConsistent(g Goal) bool {
	recounted := g.Clone()
	Recount(&recounted)
	return reflect.DeepEqual(g, recounted)
}

// normalize sorts every child list by position and renumbers positions from 0,
// then sets the parent IDs of all nodes.
func normalize(g *Goal) {
	sort.SliceStable(g.Categories, func(i, j int) bool { return g.Categories[i].Position < g.Categories[j].Position })
	for ci := range g.Categories {
		c := &g.Categories[ci]
		c.Position = ci
		c.GoalID = g.ID
		sort.SliceStable(c.Topics, func(i, j int) bool { return c.Topics[i].Position < c.Topics[j].Position })
		for ti := range c.Topics {
			t := &c.Topics[ti]
			t.Position = ti
			t.CategoryID = c.ID
			sort.SliceStable(t.Subtopics, func(i, j int) bool { return t.Subtopics[i].Position < t.Subtopics[j].Position })
			for si := range t.Subtopics {
				t.Subtopics[si].Position = si
				t.Subtopics[si].TopicID = t.ID
			}
		}
	}
}

// Clone returns a deep copy of g.
func (g Goal) Clone() Goal {
	g.TargetDate = cloneTime(g.TargetDate)
	g.CompletedAt = cloneTime(g.CompletedAt)
	if g.Categories == nil {
		return g
	}
	cats := make([]Category, len(g.Categories))
	for ci, c := range g.Categories {
		if c.Topics != nil {
			topics := make([]Topic, len(c.Topics))
			for ti, t := range c.Topics {
				if t.Subtopics != nil {
					subs := make([]Subtopic, len(t.Subtopics))
					for si, s := range t.Subtopics {
						s.StartedAt = cloneTime(s.StartedAt)
						s.CompletedAt = cloneTime(s.CompletedAt)
						subs[si] = s
					}
					t.Subtopics = subs
				}
				topics[ti] = t
			}
			c.Topics = topics
		}
		cats[ci] = c
	}
	g.Categories = cats
	return g
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Lookups. They return pointers into g so callers can mutate in place.

func (g *Goal) category(id string) (*Category, int) {
	for i := range g.Categories {
		if g.Categories[i].ID == id {
			return &g.Categories[i], i
		}
	}
	return nil, -1
}

func (g *Goal) topic(id string) (*Category, *Topic, int) {
	for ci := range g.Categories {
		c := &g.Categories[ci]
		for ti := range c.Topics {
			if c.Topics[ti].ID == id {
				return c, &c.Topics[ti], ti
			}
		}
	}
	return nil, nil, -1
}

func (g *Goal) subtopic(id string) (*Topic, *Subtopic, int) {
	for ci := range g.Categories {
		c := &g.Categories[ci]
		for ti := range c.Topics {
			t := &c.Topics[ti]
			for si := range t.Subtopics {
				if t.Subtopics[si].ID == id {
					return t, &t.Subtopics[si], si
				}
			}
		}
	}
	return nil, nil, -1
}

// Node kinds, used to find the goal owning a node.
type NodeKind string

const (
	NodeCategory NodeKind = "category"
	NodeTopic    NodeKind = "topic"
	NodeSubtopic NodeKind = "subtopic"
)
