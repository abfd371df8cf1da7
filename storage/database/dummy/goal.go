package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/skillfolio/core/goal"
)

type goalRepository struct {
	db *goalTable
}

var _ goal.Repository = (*goalRepository)(nil) // interface compliance check

func NewGoalRepository(db *DB) goal.Repository {
	return &goalRepository{db: db.goal}
}

func (repo *goalRepository) CreateGoal(_ context.Context, g goal.Goal) (goal.Goal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored := g.Clone()
	repo.db.table[g.ID] = &stored
	return g.Clone(), nil
}

func (repo *goalRepository) ListGoals(_ context.Context, userID string) ([]goal.Goal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	goals := make([]goal.Goal, 0)
	for _, g := range repo.db.table {
		if g.UserID == userID {
			goals = append(goals, g.Summary())
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (repo *goalRepository) GetGoal(_ context.Context, id string) (goal.Goal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.table[id]; ok {
		return g.Clone(), nil
	}
	return goal.Goal{}, goal.ErrNotFound
}

func (repo *goalRepository) UpdateTree(_ context.Context, goalID string, fn goal.TreeFunc) (goal.Goal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[goalID]
	if !ok {
		return goal.Goal{}, goal.ErrNotFound
	}
	g := stored.Clone()
	if err := fn(&g); err != nil {
		return goal.Goal{}, err
	}
	saved := g.Clone()
	repo.db.table[goalID] = &saved
	return g, nil
}

func (repo *goalRepository) DeleteGoal(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	delete(repo.db.history, id)
	return nil
}

func (repo *goalRepository) GoalIDOf(_ context.Context, kind goal.NodeKind, id string) (string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, g := range repo.db.table {
		for _, c := range g.Categories {
			if kind == goal.NodeCategory && c.ID == id {
				return g.ID, nil
			}
			for _, t := range c.Topics {
				if kind == goal.NodeTopic && t.ID == id {
					return g.ID, nil
				}
				for _, s := range t.Subtopics {
					if kind == goal.NodeSubtopic && s.ID == id {
						return g.ID, nil
					}
				}
			}
		}
	}
	switch kind {
	case goal.NodeCategory:
		return "", goal.ErrCategoryNotFound
	case goal.NodeTopic:
		return "", goal.ErrTopicNotFound
	default:
		return "", goal.ErrSubtopicNotFound
	}
}

func (repo *goalRepository) AllGoalIDs(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0, len(repo.db.table))
	for id := range repo.db.table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *goalRepository) UpsertHistory(_ context.Context, p goal.HistoryPoint) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[p.GoalID]; !ok {
		return goal.ErrNotFound
	}
	points, ok := repo.db.history[p.GoalID]
	if !ok {
		points = make(map[string]goal.HistoryPoint)
		repo.db.history[p.GoalID] = points
	}
	points[p.Day.Format("2006-01-02")] = p
	return nil
}

func (repo *goalRepository) History(_ context.Context, goalID string) ([]goal.HistoryPoint, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	points := make([]goal.HistoryPoint, 0, len(repo.db.history[goalID]))
	for _, p := range repo.db.history[goalID] {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })
	return points, nil
}
