package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/user"
	appfs "github.com/trezcool/skillfolio/fs"
)

const defaultSeedFile = "assets/seed/catalog.yaml"

type (
	seedQuestion struct {
		Prompt        string   `yaml:"prompt"`
		Options       []string `yaml:"options"`
		CorrectOption int      `yaml:"correct_option"`
		Explanation   string   `yaml:"explanation"`
	}

	seedLesson struct {
		Title           string         `yaml:"title"`
		Content         string         `yaml:"content"`
		VideoURL        string         `yaml:"video_url"`
		DurationMinutes int            `yaml:"duration_minutes"`
		XPReward        *int           `yaml:"xp_reward"`
		PassingScore    *int           `yaml:"passing_score"`
		Questions       []seedQuestion `yaml:"questions"`
	}

	seedModule struct {
		Title   string       `yaml:"title"`
		Summary string       `yaml:"summary"`
		Lessons []seedLesson `yaml:"lessons"`
	}

	seedCourse struct {
		Slug        string       `yaml:"slug"`
		Title       string       `yaml:"title"`
		Summary     string       `yaml:"summary"`
		Description string       `yaml:"description"`
		Level       course.Level `yaml:"level"`
		XPReward    *int         `yaml:"xp_reward"`
		Published   bool         `yaml:"published"`
		Modules     []seedModule `yaml:"modules"`
	}

	// catalog is the YAML seed of badges and courses.
	catalog struct {
		Badges  []gamification.NewBadge `yaml:"badges"`
		Courses []seedCourse            `yaml:"courses"`
	}

	seedResult struct {
		Badges, Courses, Skipped int
	}
)

func (cli *commandLine) seedCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Load a YAML catalog of badges and courses; existing codes and slugs are skipped",
		Long:  "Load a YAML catalog of badges and courses. Without FILE the bundled catalog is loaded.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.ReadCloser
			var err error
			if len(args) == 1 {
				r, err = os.Open(args[0])
			} else {
				r, err = appfs.FS.Open(defaultSeedFile)
			}
			if err != nil {
				return errors.Wrap(err, "opening seed file")
			}
			defer r.Close()

			res, err := cli.seed(cmd.Context(), r, author)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d badge(s) and %d course(s) created, %d skipped\n", res.Badges, res.Courses, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "admin", "username or email of the courses author")
	return cmd
}

func (cli *commandLine) seed(ctx context.Context, r io.Reader, author string) (seedResult, error) {
	var res seedResult
	var cat catalog
	if err := yaml.NewDecoder(r).Decode(&cat); err != nil {
		return res, errors.Wrap(err, "decoding seed file")
	}

	for _, nb := range cat.Badges {
		nb.Code = core.CleanString(nb.Code, true /* lower */)
		if err := cli.validate.Struct(nb); err != nil {
			return res, errors.Wrapf(err, "badge %q", nb.Code)
		}
		if _, err := cli.gamificationSvc.CreateBadge(ctx, nb); err != nil {
			if isValidationCause(err, gamification.ErrCodeExists) {
				res.Skipped++
				continue
			}
			return res, errors.Wrapf(err, "creating badge %q", nb.Code)
		}
		res.Badges++
	}

	if len(cat.Courses) == 0 {
		return res, nil
	}
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{core.CleanString(author, true /* lower */)}})
	if err != nil {
		return res, errors.Wrapf(err, "author %q", author)
	}
	for _, sc := range cat.Courses {
		created, err := cli.seedCourse(ctx, usr.ID, sc)
		if err != nil {
			return res, errors.Wrapf(err, "course %q", sc.Title)
		}
		if created {
			res.Courses++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (cli *commandLine) seedCourse(ctx context.Context, authorID string, sc seedCourse) (bool, error) {
	nc := course.NewCourse{
		Slug:        sc.Slug,
		Title:       sc.Title,
		Summary:     sc.Summary,
		Description: sc.Description,
		Level:       sc.Level,
		XPReward:    sc.XPReward,
	}
	if err := cli.validate.Struct(nc); err != nil {
		return false, err
	}
	c, err := cli.courseSvc.CreateCourse(ctx, authorID, nc)
	if err != nil {
		if isValidationCause(err, course.ErrSlugExists) {
			return false, nil
		}
		return false, err
	}

	for _, sm := range sc.Modules {
		nm := course.NewModule{Title: sm.Title, Summary: sm.Summary}
		if err := cli.validate.Struct(nm); err != nil {
			return false, errors.Wrapf(err, "module %q", sm.Title)
		}
		m, err := cli.courseSvc.CreateModule(ctx, c.ID, nm)
		if err != nil {
			return false, err
		}
		for _, sl := range sm.Lessons {
			if err := cli.seedLesson(ctx, m.ID, sl); err != nil {
				return false, errors.Wrapf(err, "lesson %q", sl.Title)
			}
		}
	}

	if sc.Published {
		if _, err := cli.courseSvc.SetPublished(ctx, c.ID, true); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (cli *commandLine) seedLesson(ctx context.Context, moduleID string, sl seedLesson) error {
	nl := course.NewLesson{
		Title:           sl.Title,
		Content:         sl.Content,
		VideoURL:        sl.VideoURL,
		DurationMinutes: sl.DurationMinutes,
		XPReward:        sl.XPReward,
		PassingScore:    sl.PassingScore,
	}
	if err := cli.validate.Struct(nl); err != nil {
		return err
	}
	l, err := cli.courseSvc.CreateLesson(ctx, moduleID, nl)
	if err != nil {
		return err
	}
	if len(sl.Questions) == 0 {
		return nil
	}

	rq := course.ReplaceQuestions{Questions: make([]course.NewQuestion, 0, len(sl.Questions))}
	for _, q := range sl.Questions {
		rq.Questions = append(rq.Questions, course.NewQuestion{
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}
	if err := cli.validate.Struct(rq); err != nil {
		return err
	}
	_, err = cli.courseSvc.ReplaceQuestions(ctx, l.ID, rq)
	return err
}

func isValidationCause(err, cause error) bool {
	var verr *core.ValidationError
	return errors.As(err, &verr) && verr.Err == cause
}
