package sqlxrepos

import (
	"context"
	"reflect"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/skillfolio/core/goal"
)

const (
	goalColumns = "id, user_id, title, description, target_date, total_categories, total_topics, completed_topics, " +
		"total_subtopics, completed_subtopics, progress, completed_at, created_at, updated_at"
	categoryColumns = "id, goal_id, title, position, total_topics, completed_topics, total_subtopics, completed_subtopics"
	topicColumns    = "id, category_id, title, position, total_subtopics, completed_subtopics"
	subtopicColumns = "id, topic_id, title, notes, status, position, started_at, completed_at"
)

type (
	goalRow struct {
		ID                 string    `db:"id"`
		UserID             string    `db:"user_id"`
		Title              string    `db:"title"`
		Description        string    `db:"description"`
		TargetDate         null.Time `db:"target_date"`
		TotalCategories    int       `db:"total_categories"`
		TotalTopics        int       `db:"total_topics"`
		CompletedTopics    int       `db:"completed_topics"`
		TotalSubtopics     int       `db:"total_subtopics"`
		CompletedSubtopics int       `db:"completed_subtopics"`
		Progress           int       `db:"progress"`
		CompletedAt        null.Time `db:"completed_at"`
		CreatedAt          time.Time `db:"created_at"`
		UpdatedAt          time.Time `db:"updated_at"`
	}

	subtopicRow struct {
		ID          string    `db:"id"`
		TopicID     string    `db:"topic_id"`
		Title       string    `db:"title"`
		Notes       string    `db:"notes"`
		Status      string    `db:"status"`
		Position    int       `db:"position"`
		StartedAt   null.Time `db:"started_at"`
		CompletedAt null.Time `db:"completed_at"`
	}

	historyRow struct {
		GoalID             string    `db:"goal_id"`
		Day                time.Time `db:"day"`
		CompletedSubtopics int       `db:"completed_subtopics"`
		TotalSubtopics     int       `db:"total_subtopics"`
		Progress           int       `db:"progress"`
	}
)

func toGoalRow(g goal.Goal) goalRow {
	return goalRow{
		ID:                 g.ID,
		UserID:             g.UserID,
		Title:              g.Title,
		Description:        g.Description,
		TargetDate:         null.TimeFromPtr(g.TargetDate),
		TotalCategories:    g.TotalCategories,
		TotalTopics:        g.TotalTopics,
		CompletedTopics:    g.CompletedTopics,
		TotalSubtopics:     g.TotalSubtopics,
		CompletedSubtopics: g.CompletedSubtopics,
		Progress:           g.Progress,
		CompletedAt:        null.TimeFromPtr(g.CompletedAt),
		CreatedAt:          g.CreatedAt.UTC(),
		UpdatedAt:          g.UpdatedAt.UTC(),
	}
}

func (r goalRow) goal() goal.Goal {
	return goal.Goal{
		ID:                 r.ID,
		UserID:             r.UserID,
		Title:              r.Title,
		Description:        r.Description,
		TargetDate:         utcPtr(r.TargetDate),
		TotalCategories:    r.TotalCategories,
		TotalTopics:        r.TotalTopics,
		CompletedTopics:    r.CompletedTopics,
		TotalSubtopics:     r.TotalSubtopics,
		CompletedSubtopics: r.CompletedSubtopics,
		Progress:           r.Progress,
		CompletedAt:        utcPtr(r.CompletedAt),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

func (r subtopicRow) subtopic() goal.Subtopic {
	return goal.Subtopic{
		ID:          r.ID,
		TopicID:     r.TopicID,
		Title:       r.Title,
		Notes:       r.Notes,
		Status:      goal.Status(r.Status),
		Position:    r.Position,
		StartedAt:   utcPtr(r.StartedAt),
		CompletedAt: utcPtr(r.CompletedAt),
	}
}

type goalRepository struct {
	db *sqlx.DB
}

var _ goal.Repository = (*goalRepository)(nil) // interface compliance check

func NewGoalRepository(db *sqlx.DB) goal.Repository {
	return &goalRepository{db: db}
}

func (repo *goalRepository) CreateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO goals (`+goalColumns+`)
			VALUES (:id, :user_id, :title, :description, :target_date, :total_categories, :total_topics, :completed_topics,
				:total_subtopics, :completed_subtopics, :progress, :completed_at, :created_at, :updated_at)`,
			toGoalRow(g)); err != nil {
			return errors.Wrap(err, "inserting goal")
		}
		return persistTree(ctx, tx, goal.Goal{}, g)
	})
	if err != nil {
		return goal.Goal{}, err
	}
	return repo.GetGoal(ctx, g.ID)
}

func (repo *goalRepository) ListGoals(ctx context.Context, userID string) ([]goal.Goal, error) {
	var rows []goalRow
	q := "SELECT " + goalColumns + " FROM goals WHERE user_id = $1 ORDER BY created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting goals")
	}
	goals := make([]goal.Goal, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, r.goal())
	}
	return goals, nil
}

func (repo *goalRepository) GetGoal(ctx context.Context, id string) (goal.Goal, error) {
	return loadTree(ctx, repo.db, id, false)
}

// loadTree reads the full tree of a goal, locking its row when forUpdate is set.
func loadTree(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (goal.Goal, error) {
	var row goalRow
	query := "SELECT " + goalColumns + " FROM goals WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return goal.Goal{}, trapNoRows(err, goal.ErrNotFound, "selecting goal")
	}
	g := row.goal()

	var cats []goal.Category
	rows, err := q.QueryxContext(ctx, "SELECT "+categoryColumns+" FROM goal_categories WHERE goal_id = $1 ORDER BY position", id)
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "selecting categories")
	}
	for rows.Next() {
		var c goal.Category
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Title, &c.Position, &c.TotalTopics, &c.CompletedTopics,
			&c.TotalSubtopics, &c.CompletedSubtopics); err != nil {
			_ = rows.Close()
			return goal.Goal{}, errors.Wrap(err, "scanning category")
		}
		c.Topics = []goal.Topic{}
		cats = append(cats, c)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "iterating categories")
	}

	topics := make(map[string][]goal.Topic)
	rows, err = q.QueryxContext(ctx, `
		SELECT t.id, t.category_id, t.title, t.position, t.total_subtopics, t.completed_subtopics
		FROM goal_topics t JOIN goal_categories c ON c.id = t.category_id
		WHERE c.goal_id = $1 ORDER BY t.position`, id)
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "selecting topics")
	}
	for rows.Next() {
		var t goal.Topic
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Title, &t.Position, &t.TotalSubtopics, &t.CompletedSubtopics); err != nil {
			_ = rows.Close()
			return goal.Goal{}, errors.Wrap(err, "scanning topic")
		}
		t.Subtopics = []goal.Subtopic{}
		topics[t.CategoryID] = append(topics[t.CategoryID], t)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "iterating topics")
	}

	var subRows []subtopicRow
	if err := sqlx.SelectContext(ctx, q, &subRows, `
		SELECT s.id, s.topic_id, s.title, s.notes, s.status, s.position, s.started_at, s.completed_at
		FROM goal_subtopics s
			JOIN goal_topics t ON t.id = s.topic_id
			JOIN goal_categories c ON c.id = t.category_id
		WHERE c.goal_id = $1 ORDER BY s.position`, id); err != nil {
		return goal.Goal{}, errors.Wrap(err, "selecting subtopics")
	}
	subtopics := make(map[string][]goal.Subtopic)
	for _, r := range subRows {
		subtopics[r.TopicID] = append(subtopics[r.TopicID], r.subtopic())
	}

	for ci := range cats {
		c := &cats[ci]
		for _, t := range topics[c.ID] {
			if subs, ok := subtopics[t.ID]; ok {
				t.Subtopics = subs
			}
			c.Topics = append(c.Topics, t)
		}
	}
	g.Categories = cats
	return g, nil
}

func (repo *goalRepository) UpdateTree(ctx context.Context, goalID string, fn goal.TreeFunc) (goal.Goal, error) {
	var updated goal.Goal
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		old, err := loadTree(ctx, tx, goalID, true)
		if err != nil {
			return err
		}
		g := old.Clone()
		if err := fn(&g); err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `
			UPDATE goals SET title = :title, description = :description, target_date = :target_date,
				total_categories = :total_categories, total_topics = :total_topics, completed_topics = :completed_topics,
				total_subtopics = :total_subtopics, completed_subtopics = :completed_subtopics, progress = :progress,
				completed_at = :completed_at, updated_at = :updated_at
			WHERE id = :id`,
			toGoalRow(g)); err != nil {
			return errors.Wrap(err, "updating goal")
		}
		if err := persistTree(ctx, tx, old, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	return updated, err
}

// persistTree writes the difference between the old and new trees of a goal:
// changed or new nodes are upserted, then removed nodes are deleted (children cascade).
func persistTree(ctx context.Context, tx *sqlx.Tx, old, g goal.Goal) error {
	oldCats := make(map[string]goal.Category)
	oldTopics := make(map[string]goal.Topic)
	oldSubs := make(map[string]goal.Subtopic)
	for _, c := range old.Categories {
		for _, t := range c.Topics {
			for _, s := range t.Subtopics {
				oldSubs[s.ID] = s
			}
			t.Subtopics = nil
			oldTopics[t.ID] = t
		}
		c.Topics = nil
		oldCats[c.ID] = c
	}

	keep := make(map[string]bool)
	for _, c := range g.Categories {
		keep[c.ID] = true
		for _, t := range c.Topics {
			keep[t.ID] = true
			for _, s := range t.Subtopics {
				keep[s.ID] = true
			}
		}
	}
	for _, c := range g.Categories {
		flat := c
		flat.Topics = nil
		if prev, ok := oldCats[c.ID]; !ok || !reflect.DeepEqual(prev, flat) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO goal_categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, position = EXCLUDED.position,
					total_topics = EXCLUDED.total_topics, completed_topics = EXCLUDED.completed_topics,
					total_subtopics = EXCLUDED.total_subtopics, completed_subtopics = EXCLUDED.completed_subtopics`,
				c.ID, g.ID, c.Title, c.Position, c.TotalTopics, c.CompletedTopics, c.TotalSubtopics, c.CompletedSubtopics,
			); err != nil {
				return errors.Wrap(err, "saving category")
			}
		}
		for _, t := range c.Topics {
			flat := t
			flat.Subtopics = nil
			if prev, ok := oldTopics[t.ID]; !ok || !reflect.DeepEqual(prev, flat) {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO goal_topics (`+topicColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (id) DO UPDATE SET category_id = EXCLUDED.category_id, title = EXCLUDED.title,
						position = EXCLUDED.position, total_subtopics = EXCLUDED.total_subtopics,
						completed_subtopics = EXCLUDED.completed_subtopics`,
					t.ID, c.ID, t.Title, t.Position, t.TotalSubtopics, t.CompletedSubtopics,
				); err != nil {
					return errors.Wrap(err, "saving topic")
				}
			}
			for _, s := range t.Subtopics {
				if prev, ok := oldSubs[s.ID]; ok && reflect.DeepEqual(prev, s) {
					continue
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO goal_subtopics (`+subtopicColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
					ON CONFLICT (id) DO UPDATE SET topic_id = EXCLUDED.topic_id, title = EXCLUDED.title,
						notes = EXCLUDED.notes, status = EXCLUDED.status, position = EXCLUDED.position,
						started_at = EXCLUDED.started_at, completed_at = EXCLUDED.completed_at`,
					s.ID, t.ID, s.Title, s.Notes, string(s.Status), s.Position,
					null.TimeFromPtr(s.StartedAt), null.TimeFromPtr(s.CompletedAt),
				); err != nil {
					return errors.Wrap(err, "saving subtopic")
				}
			}
		}
	}

	for _, del := range []struct {
		table string
		ids   func() []string
	}{
		{"goal_subtopics", func() []string { return missing(oldSubs, keep) }},
		{"goal_topics", func() []string { return missing(oldTopics, keep) }},
		{"goal_categories", func() []string { return missing(oldCats, keep) }},
	} {
		if ids := del.ids(); len(ids) > 0 {
			q, args, err := sqlx.In("DELETE FROM "+del.table+" WHERE id IN (?)", ids)
			if err != nil {
				return errors.Wrap(err, "building delete")
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
				return errors.Wrapf(err, "deleting from %s", del.table)
			}
		}
	}
	return nil
}

func missing[T any](old map[string]T, keep map[string]bool) []string {
	var ids []string
	for id := range old {
		if !keep[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (repo *goalRepository) DeleteGoal(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM goals WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "deleting goal")
	}
	return nil
}

var nodeQueries = map[goal.NodeKind]string{
	goal.NodeCategory: "SELECT goal_id FROM goal_categories WHERE id = $1",
	goal.NodeTopic: `SELECT c.goal_id FROM goal_topics t JOIN goal_categories c ON c.id = t.category_id
		WHERE t.id = $1`,
	goal.NodeSubtopic: `SELECT c.goal_id FROM goal_subtopics s
		JOIN goal_topics t ON t.id = s.topic_id JOIN goal_categories c ON c.id = t.category_id
		WHERE s.id = $1`,
}

var nodeNotFound = map[goal.NodeKind]error{
	goal.NodeCategory: goal.ErrCategoryNotFound,
	goal.NodeTopic:    goal.ErrTopicNotFound,
	goal.NodeSubtopic: goal.ErrSubtopicNotFound,
}

func (repo *goalRepository) GoalIDOf(ctx context.Context, kind goal.NodeKind, id string) (string, error) {
	q, ok := nodeQueries[kind]
	if !ok {
		return "", errors.Errorf("unknown node kind %q", kind)
	}
	var goalID string
	if err := repo.db.GetContext(ctx, &goalID, q, id); err != nil {
		return "", trapNoRows(err, nodeNotFound[kind], "finding goal of node")
	}
	return goalID, nil
}

func (repo *goalRepository) AllGoalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := repo.db.SelectContext(ctx, &ids, "SELECT id FROM goals ORDER BY created_at"); err != nil {
		return nil, errors.Wrap(err, "selecting goal IDs")
	}
	return ids, nil
}

func (repo *goalRepository) UpsertHistory(ctx context.Context, p goal.HistoryPoint) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO goal_history (goal_id, day, completed_subtopics, total_subtopics, progress)
		VALUES (:goal_id, :day, :completed_subtopics, :total_subtopics, :progress)
		ON CONFLICT (goal_id, day) DO UPDATE SET completed_subtopics = EXCLUDED.completed_subtopics,
			total_subtopics = EXCLUDED.total_subtopics, progress = EXCLUDED.progress`,
		historyRow{
			GoalID:             p.GoalID,
			Day:                p.Day.UTC(),
			CompletedSubtopics: p.CompletedSubtopics,
			TotalSubtopics:     p.TotalSubtopics,
			Progress:           p.Progress,
		})
	return errors.Wrap(err, "upserting goal history")
}

func (repo *goalRepository) History(ctx context.Context, goalID string) ([]goal.HistoryPoint, error) {
	var rows []historyRow
	q := "SELECT goal_id, day, completed_subtopics, total_subtopics, progress FROM goal_history WHERE goal_id = $1 ORDER BY day"
	if err := repo.db.SelectContext(ctx, &rows, q, goalID); err != nil {
		return nil, errors.Wrap(err, "selecting goal history")
	}
	points := make([]goal.HistoryPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, goal.HistoryPoint{
			GoalID:             r.GoalID,
			Day:                r.Day.UTC(),
			CompletedSubtopics: r.CompletedSubtopics,
			TotalSubtopics:     r.TotalSubtopics,
			Progress:           r.Progress,
		})
	}
	return points, nil
}
