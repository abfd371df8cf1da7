// Package authz decides what a user may do from its roles, with the casbin RBAC policy embedded in the binary.
package authz

import (
	"io/fs"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/pkg/errors"

	"github.com/trezcool/skillfolio/core/user"
	appfs "github.com/trezcool/skillfolio/fs"
)

const (
	modelPath  = "assets/authz/model.conf"
	policyPath = "assets/authz/policy.csv"
)

// Objects and actions of the policy.
const (
	ObjProfile = "profile"
	ObjCourse  = "course"
	ObjGoal    = "goal"
	ObjForum   = "forum"
	ObjCatalog = "catalog"
	ObjUsers   = "users"
	ObjBadges  = "badges"
	ObjStats   = "stats"

	ActWrite    = "write"
	ActLearn    = "learn"
	ActModerate = "moderate"
	ActManage   = "manage"
	ActRead     = "read"
)

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	modelText, err := fs.ReadFile(appfs.FS, modelPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading casbin model")
	}
	m, err := model.NewModelFromString(string(modelText))
	if err != nil {
		return nil, errors.Wrap(err, "parsing casbin model")
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating casbin enforcer")
	}

	policy, err := fs.ReadFile(appfs.FS, policyPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading casbin policy")
	}
	if err := loadPolicy(e, string(policy)); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = e.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = e.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = errors.Errorf("malformed policy line %q", line)
		}
		if err != nil {
			return errors.Wrapf(err, "loading policy line %q", line)
		}
	}
	return nil
}

// subjects maps the roles of usr to policy subjects. Every active user is a learner.
func subjects(usr user.User) []string {
	subs := []string{user.RoleLearner}
	for _, role := range usr.Roles {
		switch {
		case role == user.RoleAdminOwner:
			subs = append(subs, role)
		case strings.HasPrefix(role, user.RoleAdmin):
			subs = append(subs, user.RoleAdmin)
		case strings.HasPrefix(role, user.RoleModerator):
			subs = append(subs, user.RoleModerator)
		case strings.HasPrefix(role, user.RoleInstructor):
			subs = append(subs, user.RoleInstructor)
		}
	}
	return subs
}

// Can reports whether usr may perform act on obj.
func (e *Enforcer) Can(usr user.User, obj, act string) bool {
	if !usr.Active() {
		return false
	}
	for _, sub := range subjects(usr) {
		if ok, err := e.enforcer.Enforce(sub, obj, act); err == nil && ok {
			return true
		}
	}
	return false
}
