package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_passwordPolicyTag(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc 123!xyz", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg12!", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Johndoe12!", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", wantTag: pwdNoCommonTag},
		{name: "ok", pwd: "Tr0ub4dor&3x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := passwordPolicyTag(tt.pwd, "John Doe", "johndoe", "john@doe.io")
			if tt.wantTag == "" {
				assert.Nil(t, fe)
				return
			}
			if assert.NotNil(t, fe) {
				assert.Equal(t, tt.wantTag, fe.Field)
			}
		})
	}
}

func Test_checkPasswordPolicy(t *testing.T) {
	fe := checkPasswordPolicy(NewUser{Password: "short"})
	if assert.NotNil(t, fe) {
		assert.Equal(t, "password", fe.Field)
		assert.Equal(t, pwdMinLenText, fe.Error)
	}
	assert.Nil(t, checkPasswordPolicy(NewUser{Password: "Tr0ub4dor&3x"}))
}
