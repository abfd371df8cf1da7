package goal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("goal")
	ErrCategoryNotFound = core.NewNotFoundError("category")
	ErrTopicNotFound    = core.NewNotFoundError("topic")
	ErrSubtopicNotFound = core.NewNotFoundError("subtopic")
)

type (
	// TreeFunc mutates a goal tree loaded by Repository.UpdateTree.
	TreeFunc func(g *Goal) error

	Repository interface {
		CreateGoal(ctx context.Context, g Goal) (Goal, error)
		// ListGoals returns the user's goals without their categories, newest first.
		ListGoals(ctx context.Context, userID string) ([]Goal, error)
		// GetGoal returns the full tree of a goal.
		GetGoal(ctx context.Context, id string) (Goal, error)
		// UpdateTree atomically loads the full tree of a goal, applies fn and persists the result:
		// nodes missing from the tree are deleted, all others are inserted or updated.
		// Nothing is written if fn returns an error.
		UpdateTree(ctx context.Context, goalID string, fn TreeFunc) (Goal, error)
		DeleteGoal(ctx context.Context, id string) error
		// GoalIDOf returns the ID of the goal owning a category, topic or subtopic.
		GoalIDOf(ctx context.Context, kind NodeKind, id string) (string, error)
		AllGoalIDs(ctx context.Context) ([]string, error)
		UpsertHistory(ctx context.Context, p HistoryPoint) error
		History(ctx context.Context, goalID string) ([]HistoryPoint, error)
	}

	Service interface {
		CreateGoal(ctx context.Context, userID string, ng NewGoal) (Goal, error)
		UpdateGoal(ctx context.Context, userID, goalID string, ug UpdateGoal) (Goal, error)
		DeleteGoal(ctx context.Context, userID, goalID string) error
		ListGoals(ctx context.Context, userID string) ([]Goal, error)
		GetGoal(ctx context.Context, userID, goalID string) (Goal, error)
		History(ctx context.Context, userID, goalID string) ([]HistoryPoint, error)

		AddCategory(ctx context.Context, userID, goalID string, nn NewNode) (Goal, error)
		UpdateCategory(ctx context.Context, userID, categoryID string, nn NewNode) (Goal, error)
		DeleteCategory(ctx context.Context, userID, categoryID string) (Goal, error)
		ReorderCategories(ctx context.Context, userID, goalID string, ro Reorder) (Goal, error)

		AddTopic(ctx context.Context, userID, categoryID string, nn NewNode) (Goal, error)
		UpdateTopic(ctx context.Context, userID, topicID string, nn NewNode) (Goal, error)
		DeleteTopic(ctx context.Context, userID, topicID string) (Goal, error)
		ReorderTopics(ctx context.Context, userID, categoryID string, ro Reorder) (Goal, error)

		AddSubtopic(ctx context.Context, userID, topicID string, ns NewSubtopic) (Goal, error)
		UpdateSubtopic(ctx context.Context, userID, subtopicID string, us UpdateSubtopic) (Goal, error)
		SetSubtopicStatus(ctx context.Context, userID, subtopicID string, status Status) (Goal, error)
		DeleteSubtopic(ctx context.Context, userID, subtopicID string) (Goal, error)
		ReorderSubtopics(ctx context.Context, userID, topicID string, ro Reorder) (Goal, error)

		// RecountAll rewrites the counters of every goal and returns how many had drifted.
		RecountAll(ctx context.Context) (int, error)
	}

	service struct {
		repo   Repository
		events core.EventPublisher
		logger core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

// NowFunc is mockable.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, events core.EventPublisher, logger core.Logger) Service {
	return &service{repo: repo, events: events, logger: logger}
}

func newID() string { return uuid.New().String() }

func (svc *service) CreateGoal(ctx context.Context, userID string, ng NewGoal) (Goal, error) {
	now := NowFunc()
	g := Goal{
		ID:          newID(),
		UserID:      userID,
		Title:       ng.Title,
		Description: ng.Description,
		TargetDate:  ng.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for ci, nc := range ng.Categories {
		c := Category{ID: newID(), Title: nc.Title, Position: ci, Topics: []Topic{}}
		for ti, nt := range nc.Topics {
			t := Topic{ID: newID(), Title: nt.Title, Position: ti, Subtopics: []Subtopic{}}
			for si, title := range nt.Subtopics {
				t.Subtopics = append(t.Subtopics, Subtopic{ID: newID(), Title: title, Status: StatusPending, Position: si})
			}
			c.Topics = append(c.Topics, t)
		}
		g.Categories = append(g.Categories, c)
	}
	normalize(&g)
	Recount(&g)

	g, err := svc.repo.CreateGoal(ctx, g)
	if err != nil {
		return Goal{}, errors.Wrap(err, "creating goal")
	}
	svc.recordHistory(ctx, g)
	return g, nil
}

func (svc *service) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	return svc.repo.ListGoals(ctx, userID)
}

func (svc *service) GetGoal(ctx context.Context, userID, goalID string) (Goal, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return Goal{}, ErrNotFound
	}
	g, err := svc.repo.GetGoal(ctx, goalID)
	if err != nil {
		return Goal{}, err
	}
	if g.UserID != userID {
		return Goal{}, ErrNotFound
	}
	return g, nil
}

func (svc *service) History(ctx context.Context, userID, goalID string) ([]HistoryPoint, error) {
	if _, err := svc.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return svc.repo.History(ctx, goalID)
}

func (svc *service) UpdateGoal(ctx context.Context, userID, goalID string, ug UpdateGoal) (Goal, error) {
	return svc.mutate(ctx, userID, goalID, func(g *Goal) error {
		if ug.Title != nil {
			g.Title = *ug.Title
		}
		if ug.Description != nil {
			g.Description = *ug.Description
		}
		if ug.ClearTargetDate {
			g.TargetDate = nil
		} else if ug.TargetDate != nil {
			g.TargetDate = ug.TargetDate
		}
		return nil
	})
}

func (svc *service) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if _, err := svc.GetGoal(ctx, userID, goalID); err != nil {
		return err
	}
	return svc.repo.DeleteGoal(ctx, goalID)
}

// Categories

func (svc *service) AddCategory(ctx context.Context, userID, goalID string, nn NewNode) (Goal, error) {
	return svc.mutate(ctx, userID, goalID, func(g *Goal) error {
		g.Categories = append(g.Categories, Category{
			ID:       newID(),
			Title:    nn.Title,
			Position: len(g.Categories),
			Topics:   []Topic{},
		})
		return nil
	})
}

func (svc *service) UpdateCategory(ctx context.Context, userID, categoryID string, nn NewNode) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeCategory, categoryID, func(g *Goal) error {
		c, _ := g.category(categoryID)
		if c == nil {
			return ErrCategoryNotFound
		}
		c.Title = nn.Title
		return nil
	})
}

func (svc *service) DeleteCategory(ctx context.Context, userID, categoryID string) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeCategory, categoryID, func(g *Goal) error {
		_, idx := g.category(categoryID)
		if idx < 0 {
			return ErrCategoryNotFound
		}
		g.Categories = append(g.Categories[:idx], g.Categories[idx+1:]...)
		return nil
	})
}

func (svc *service) ReorderCategories(ctx context.Context, userID, goalID string, ro Reorder) (Goal, error) {
	return svc.mutate(ctx, userID, goalID, func(g *Goal) error {
		current := make([]string, 0, len(g.Categories))
		for _, c := range g.Categories {
			current = append(current, c.ID)
		}
		if err := core.CheckPermutation(current, ro.IDs); err != nil {
			return err
		}
		pos := positions(ro.IDs)
		for i := range g.Categories {
			g.Categories[i].Position = pos[g.Categories[i].ID]
		}
		return nil
	})
}

// Topics

func (svc *service) AddTopic(ctx context.Context, userID, categoryID string, nn NewNode) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeCategory, categoryID, func(g *Goal) error {
		c, _ := g.category(categoryID)
		if c == nil {
			return ErrCategoryNotFound
		}
		c.Topics = append(c.Topics, Topic{
			ID:        newID(),
			Title:     nn.Title,
			Position:  len(c.Topics),
			Subtopics: []Subtopic{},
		})
		return nil
	})
}

func (svc *service) UpdateTopic(ctx context.Context, userID, topicID string, nn NewNode) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeTopic, topicID, func(g *Goal) error {
		_, t, _ := g.topic(topicID)
		if t == nil {
			return ErrTopicNotFound
		}
		t.Title = nn.Title
		return nil
	})
}

func (svc *service) DeleteTopic(ctx context.Context, userID, topicID string) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeTopic, topicID, func(g *Goal) error {
		c, _, idx := g.topic(topicID)
		if idx < 0 {
			return ErrTopicNotFound
		}
		c.Topics = append(c.Topics[:idx], c.Topics[idx+1:]...)
		return nil
	})
}

func (svc *service) ReorderTopics(ctx context.Context, userID, categoryID string, ro Reorder) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeCategory, categoryID, func(g *Goal) error {
		c, _ := g.category(categoryID)
		if c == nil {
			return ErrCategoryNotFound
		}
		current := make([]string, 0, len(c.Topics))
		for _, t := range c.Topics {
			current = append(current, t.ID)
		}
		if err := core.CheckPermutation(current, ro.IDs); err != nil {
			return err
		}
		pos := positions(ro.IDs)
		for i := range c.Topics {
			c.Topics[i].Position = pos[c.Topics[i].ID]
		}
		return nil
	})
}

// Subtopics

func (svc *service) AddSubtopic(ctx context.Context, userID, topicID string, ns NewSubtopic) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeTopic, topicID, func(g *Goal) error {
		_, t, _ := g.topic(topicID)
		if t == nil {
			return ErrTopicNotFound
		}
		t.Subtopics = append(t.Subtopics, Subtopic{
			ID:       newID(),
			Title:    ns.Title,
			Notes:    ns.Notes,
			Status:   StatusPending,
			Position: len(t.Subtopics),
		})
		return nil
	})
}

func (svc *service) UpdateSubtopic(ctx context.Context, userID, subtopicID string, us UpdateSubtopic) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeSubtopic, subtopicID, func(g *Goal) error {
		_, s, _ := g.subtopic(subtopicID)
		if s == nil {
			return ErrSubtopicNotFound
		}
		if us.Title != nil {
			s.Title = *us.Title
		}
		if us.Notes != nil {
			s.Notes = *us.Notes
		}
		return nil
	})
}

func (svc *service) SetSubtopicStatus(ctx context.Context, userID, subtopicID string, status Status) (Goal, error) {
	var completedNow bool
	g, err := svc.mutateNode(ctx, userID, NodeSubtopic, subtopicID, func(g *Goal) error {
		_, s, _ := g.subtopic(subtopicID)
		if s == nil {
			return ErrSubtopicNotFound
		}
		completedNow = applyStatus(s, status, NowFunc())
		return nil
	})
	if err != nil {
		return Goal{}, err
	}
	if completedNow {
		svc.publish(ctx, core.NewEvent(core.EventSubtopicCompleted, userID, subtopicID, 0, map[string]string{
			"goal_id": g.ID,
		}))
	}
	return g, nil
}

// applyStatus moves s to status and reports whether s just became completed.
func applyStatus(s *Subtopic, status Status, now time.Time) bool {
	prev := s.Status
	s.Status = status
	switch status {
	case StatusPending:
		s.StartedAt, s.CompletedAt = nil, nil
	case StatusStarted:
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
		s.CompletedAt = nil
	case StatusCompleted:
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
		if prev != StatusCompleted {
			s.CompletedAt = &now
			return true
		}
	}
	return false
}

func (svc *service) DeleteSubtopic(ctx context.Context, userID, subtopicID string) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeSubtopic, subtopicID, func(g *Goal) error {
		t, _, idx := g.subtopic(subtopicID)
		if idx < 0 {
			return ErrSubtopicNotFound
		}
		t.Subtopics = append(t.Subtopics[:idx], t.Subtopics[idx+1:]...)
		return nil
	})
}

func (svc *service) ReorderSubtopics(ctx context.Context, userID, topicID string, ro Reorder) (Goal, error) {
	return svc.mutateNode(ctx, userID, NodeTopic, topicID, func(g *Goal) error {
		_, t, _ := g.topic(topicID)
		if t == nil {
			return ErrTopicNotFound
		}
		current := make([]string, 0, len(t.Subtopics))
		for _, s := range t.Subtopics {
			current = append(current, s.ID)
		}
		if err := core.CheckPermutation(current, ro.IDs); err != nil {
			return err
		}
		pos := positions(ro.IDs)
		for i := range t.Subtopics {
			t.Subtopics[i].Position = pos[t.Subtopics[i].ID]
		}
		return nil
	})
}

func (svc *service) RecountAll(ctx context.Context) (int, error) {
	ids, err := svc.repo.AllGoalIDs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing goals")
	}
	var drifted int
	for _, id := range ids {
		var changed, completedNow bool
		g, err := svc.repo.UpdateTree(ctx, id, func(g *Goal) error {
			changed = !CountersConsistent(*g)
			normalize(g)
			Recount(g)
			completedNow = syncCompletion(g, NowFunc())
			return nil
		})
		if err != nil {
			return drifted, errors.Wrapf(err, "recounting goal %s", id)
		}
		if changed {
			drifted++
		}
		if changed || completedNow {
			svc.recordHistory(ctx, g)
		}
		if completedNow {
			svc.publish(ctx, core.NewEvent(core.EventGoalCompleted, g.UserID, g.ID, 0, map[string]string{
				"title": g.Title,
			}))
		}
	}
	return drifted, nil
}

// mutate runs fn on the user's goal tree, then recounts it, records history and publishes
// the goal completion, all as one repository update.
func (svc *service) mutate(ctx context.Context, userID, goalID string, fn TreeFunc) (Goal, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return Goal{}, ErrNotFound
	}
	var completedNow bool
	g, err := svc.repo.UpdateTree(ctx, goalID, func(g *Goal) error {
		if g.UserID != userID {
			return ErrNotFound
		}
		if err := fn(g); err != nil {
			return err
		}
		now := NowFunc()
		normalize(g)
		Recount(g)
		completedNow = syncCompletion(g, now)
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Goal{}, err
	}

	svc.recordHistory(ctx, g)
	if completedNow {
		svc.publish(ctx, core.NewEvent(core.EventGoalCompleted, userID, g.ID, 0, map[string]string{
			"title": g.Title,
		}))
	}
	return g, nil
}

// mutateNode is mutate for operations addressed by a node ID.
func (svc *service) mutateNode(ctx context.Context, userID string, kind NodeKind, nodeID string, fn TreeFunc) (Goal, error) {
	notFound := map[NodeKind]error{
		NodeCategory: ErrCategoryNotFound,
		NodeTopic:    ErrTopicNotFound,
		NodeSubtopic: ErrSubtopicNotFound,
	}[kind]

	if _, err := uuid.Parse(nodeID); err != nil {
		return Goal{}, notFound
	}
	goalID, err := svc.repo.GoalIDOf(ctx, kind, nodeID)
	if err != nil {
		return Goal{}, err
	}
	g, err := svc.mutate(ctx, userID, goalID, fn)
	if errors.Cause(err) == ErrNotFound {
		// do not leak the existence of other users' nodes
		return Goal{}, notFound
	}
	return g, err
}

// syncCompletion sets or clears g.CompletedAt and reports whether the goal just got completed.
func syncCompletion(g *Goal, now time.Time) bool {
	if g.IsCompleted() {
		if g.CompletedAt == nil {
			g.CompletedAt = &now
			return true
		}
		return false
	}
	g.CompletedAt = nil
	return false
}

func (svc *service) recordHistory(ctx context.Context, g Goal) {
	now := NowFunc()
	p := HistoryPoint{
		GoalID:             g.ID,
		Day:                time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		CompletedSubtopics: g.CompletedSubtopics,
		TotalSubtopics:     g.TotalSubtopics,
		Progress:           g.Progress,
	}
	if err := svc.repo.UpsertHistory(ctx, p); err != nil {
		svc.logger.Error(fmt.Sprintf("recording goal history: %v", err), err)
	}
}

func (svc *service) publish(ctx context.Context, evt core.Event) {
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", evt.Type, err), err)
	}
}

func positions(ids []string) map[string]int {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	return pos
}
