package notification

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/user"
)

func (svc *service) Subscribe(sub core.EventSubscriber) {
	sub.Subscribe("notification.badge_awarded", core.EventBadgeAwarded, svc.onBadgeAwarded)
	sub.Subscribe("notification.level_up", core.EventLevelUp, svc.onLevelUp)
	sub.Subscribe("notification.course_completed", core.EventCourseCompleted, svc.onCourseCompleted)
	sub.Subscribe("notification.goal_completed", core.EventGoalCompleted, svc.onGoalCompleted)
	sub.Subscribe("notification.post_created", core.EventPostCreated, svc.onPostCreated)
}

func (svc *service) onBadgeAwarded(ctx context.Context, evt core.Event) error {
	name := evt.Attr("name")
	if _, err := svc.Notify(ctx, Notification{
		UserID: evt.UserID,
		Kind:   KindBadgeAwarded,
		Title:  fmt.Sprintf("You earned the %s badge", name),
		Body:   evt.Attr("description"),
		Link:   "/me/badges",
	}); err != nil {
		return err
	}

	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: evt.UserID})
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "getting badge recipient")
	}
	if usr.Email != "" && usr.Active() {
		svc.mailSvc.SendMessages(badgeMessage(usr, evt))
	}
	return nil
}

func (svc *service) onLevelUp(ctx context.Context, evt core.Event) error {
	_, err := svc.Notify(ctx, Notification{
		UserID: evt.UserID,
		Kind:   KindLevelUp,
		Title:  fmt.Sprintf("You reached level %d", evt.Value),
		Link:   "/me",
	})
	return err
}

func (svc *service) onCourseCompleted(ctx context.Context, evt core.Event) error {
	_, err := svc.Notify(ctx, Notification{
		UserID: evt.UserID,
		Kind:   KindCourseCompleted,
		Title:  fmt.Sprintf("You completed %s", evt.Attr("title")),
		Link:   "/courses/" + evt.Attr("slug"),
	})
	return err
}

func (svc *service) onGoalCompleted(ctx context.Context, evt core.Event) error {
	_, err := svc.Notify(ctx, Notification{
		UserID: evt.UserID,
		Kind:   KindGoalCompleted,
		Title:  fmt.Sprintf("Goal reached: %s", evt.Attr("title")),
		Link:   "/goals/" + evt.SubjectID,
	})
	return err
}

// onPostCreated tells a thread author about replies from other users.
func (svc *service) onPostCreated(ctx context.Context, evt core.Event) error {
	author := evt.Attr("thread_author_id")
	if author == "" || author == evt.UserID {
		return nil
	}
	_, err := svc.Notify(ctx, Notification{
		UserID: author,
		Kind:   KindThreadReply,
		Title:  fmt.Sprintf("%s replied to %s", evt.Attr("author_name"), evt.Attr("thread_title")),
		Link:   fmt.Sprintf("/forum/threads/%s#post-%s", evt.Attr("thread_id"), evt.SubjectID),
	})
	return err
}

func badgeMessage(usr user.User, evt core.Event) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:      fmt.Sprintf("You earned the %s badge", evt.Attr("name")),
		TemplateName: "badge_awarded",
		TemplateData: map[string]interface{}{
			"Name":        usr.DisplayName(),
			"BadgeName":   evt.Attr("name"),
			"Tier":        evt.Attr("tier"),
			"Description": evt.Attr("description"),
		},
	}
}
