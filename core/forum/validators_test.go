package forum_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/skillfolio/core/forum"
	testutil "github.com/trezcool/skillfolio/tests"
)

func TestNewThread_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator(forum.InitValidators)

	nt := forum.NewThread{Title: "  Channels  ", Body: " why? ", Tags: []string{" Go ", "go", "", "CSP"}}
	require.NoError(t, nt.Validate(validate))
	assert.Equal(t, "Channels", nt.Title)
	assert.Equal(t, "why?", nt.Body)
	assert.Equal(t, []string{"go", "csp"}, nt.Tags)

	nt = forum.NewThread{Title: "   ", Body: "b", Tags: []string{"a", "b", "c", "d", "e", "f"}}
	err := nt.Validate(validate)
	require.Error(t, err)
	fields := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{"title": "required", "tags": "max"}, fields)
}

func TestNewReport_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator(forum.InitValidators)
	id := "2b1e7a4c-1f1e-4b8e-9a55-5d7f3c1d2e3f"

	tests := []struct {
		name  string
		input forum.NewReport
		valid bool
	}{
		{"thread", forum.NewReport{ThreadID: id, Reason: "spam"}, true},
		{"post", forum.NewReport{PostID: id, Reason: "spam"}, true},
		{"both", forum.NewReport{ThreadID: id, PostID: id, Reason: "spam"}, false},
		{"none", forum.NewReport{Reason: "spam"}, false},
		{"no reason", forum.NewReport{PostID: id, Reason: "  "}, false},
		{"bad id", forum.NewReport{PostID: "42", Reason: "spam"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			err := in.Validate(validate)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	in := forum.NewReport{Reason: "spam"}
	err := in.Validate(validate)
	require.Error(t, err)
	msgs := err.(validator.ValidationErrors).Translate(translator)
	assert.Equal(t, "report either a thread or a post", msgs["NewReport.thread_id"])

	rr := forum.ResolveReport{Status: forum.ReportOpen}
	assert.Error(t, rr.Validate(validate))
	rr.Status = forum.ReportResolved
	assert.NoError(t, rr.Validate(validate))
}
