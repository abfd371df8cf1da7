package gamification

import (
	"context"

	"github.com/trezcool/skillfolio/core"
)

func (svc *service) Subscribe(sub core.EventSubscriber) {
	sub.Subscribe("gamification.lesson_completed", core.EventLessonCompleted, svc.awardFor(ReasonLessonCompleted, func(e core.Event) int {
		return e.Value
	}))
	sub.Subscribe("gamification.quiz_passed", core.EventQuizPassed, svc.onQuizPassed)
	sub.Subscribe("gamification.course_completed", core.EventCourseCompleted, svc.awardFor(ReasonCourseCompleted, func(e core.Event) int {
		return e.Value
	}))
	sub.Subscribe("gamification.subtopic_completed", core.EventSubtopicCompleted, svc.awardFor(ReasonSubtopicCompleted, fixed(XPSubtopicCompleted)))
	sub.Subscribe("gamification.goal_completed", core.EventGoalCompleted, svc.awardFor(ReasonGoalCompleted, fixed(XPGoalCompleted)))
	sub.Subscribe("gamification.thread_created", core.EventThreadCreated, svc.awardFor(ReasonForumThread, fixed(XPForumThread)))
	sub.Subscribe("gamification.post_created", core.EventPostCreated, svc.awardFor(ReasonForumPost, fixed(XPForumPost)))
}

func fixed(amount int) func(core.Event) int {
	return func(core.Event) int { return amount }
}

// awardFor returns a handler awarding amount(evt) XP for the event subject.
func (svc *service) awardFor(reason Reason, amount func(core.Event) int) core.EventHandler {
	return func(ctx context.Context, evt core.Event) error {
		_, err := svc.Award(ctx, evt.UserID, amount(evt), reason, evt.SubjectID)
		return err
	}
}

// onQuizPassed awards score / 10 XP, plus a bonus for a perfect score.
func (svc *service) onQuizPassed(ctx context.Context, evt core.Event) error {
	if _, err := svc.Award(ctx, evt.UserID, evt.Value/10, ReasonQuizPassed, evt.SubjectID); err != nil {
		return err
	}
	if evt.Value == 100 {
		if _, err := svc.Award(ctx, evt.UserID, XPQuizPerfect, ReasonQuizPerfect, evt.SubjectID); err != nil {
			return err
		}
	}
	return nil
}
