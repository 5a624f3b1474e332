package directive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/cienv/internal/errors"
)

func TestFromFields_Sources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields Fields
		want   Source
		kind   SourceKind
	}{
		{
			name:   "literal",
			fields: Fields{"name": "FOO", "input_data": "bar"},
			want:   Literal{Value: "bar"},
			kind:   KindLiteral,
		},
		{
			name:   "empty literal is allowed",
			fields: Fields{"name": "FOO", "input_data": ""},
			want:   Literal{Value: ""},
			kind:   KindLiteral,
		},
		{
			name:   "secret",
			fields: Fields{"name": "TOKEN", "input_secret": "ci/token"},
			want:   Secret{Name: "ci/token"},
			kind:   KindSecret,
		},
		{
			name:   "role arn",
			fields: Fields{"name": "ROLE", "input_role_arn": "arn:aws:iam::123456789012:role/ci"},
			want:   AssumedRole{RoleARN: "arn:aws:iam::123456789012:role/ci"},
			kind:   KindAssumedRole,
		},
		{
			name:   "role arn from secret",
			fields: Fields{"name": "ROLE", "input_role_arn_secret": "ci/role-arn"},
			want:   AssumedRole{RoleARNSecret: "ci/role-arn"},
			kind:   KindAssumedRole,
		},
		{
			name:   "s3 object",
			fields: Fields{"name": "CERT", "input_s3": "s3://bucket/cert.pem"},
			want:   ObjectDownload{Locator: "s3://bucket/cert.pem"},
			kind:   KindObjectDownload,
		},
		{
			name:   "literal whitespace is kept",
			fields: Fields{"name": "PEM", "input_data": "  two spaces\n"},
			want:   Literal{Value: "  two spaces\n"},
			kind:   KindLiteral,
		},
		{
			name:   "identifier whitespace is trimmed",
			fields: Fields{"name": "TOKEN", "input_secret": "\n  ci/token\n"},
			want:   Secret{Name: "ci/token"},
			kind:   KindSecret,
		},
		{
			name:   "no source",
			fields: Fields{"name": "NOTHING"},
			want:   nil,
			kind:   KindNone,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := FromFields(0, tt.fields, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Source)
			assert.Equal(t, tt.kind, d.Kind())
		})
	}
}

func TestFromFields_NameIsTrimmed(t *testing.T) {
	t.Parallel()

	d, err := FromFields(0, Fields{"name": "\n  FOO  \n", "input_data": "bar"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "FOO", d.Name)
}

func TestFromFields_MissingName(t *testing.T) {
	t.Parallel()

	for _, fields := range []Fields{
		{"input_data": "bar"},
		{"name": "", "input_data": "bar"},
		{"name": "   "},
	} {
		_, err := FromFields(3, fields, Options{})
		var malformed *dserrors.MalformedDirectiveError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, 3, malformed.Index)
		assert.Equal(t, KeyName, malformed.Field)
	}
}

func TestFromFields_MultipleSources(t *testing.T) {
	t.Parallel()

	fields := Fields{"name": "X", "input_data": "a", "input_secret": "b"}

	_, err := FromFields(0, fields, Options{})
	var malformed *dserrors.MalformedDirectiveError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "X", malformed.Name)
	assert.Contains(t, malformed.Reason, "input_data, input_secret")

	d, err := FromFields(0, fields, Options{LegacyPrecedence: true})
	require.NoError(t, err)
	assert.Equal(t, Secret{Name: "b"}, d.Source)
}

func TestFromFields_LegacyPrecedenceOrder(t *testing.T) {
	t.Parallel()

	fields := Fields{
		"name":           "X",
		"input_s3":       "s3://b/k",
		"input_data":     "a",
		"input_role_arn": "arn",
	}

	d, err := FromFields(0, fields, Options{LegacyPrecedence: true})
	require.NoError(t, err)
	assert.Equal(t, ObjectDownload{Locator: "s3://b/k"}, d.Source)
}

func TestFromFields_EmptySourceValue(t *testing.T) {
	t.Parallel()

	_, err := FromFields(0, Fields{"name": "X", "input_secret": ""}, Options{})
	var malformed *dserrors.MalformedDirectiveError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, KeyInputSecret, malformed.Field)
}

func TestFromFields_Conditions(t *testing.T) {
	t.Parallel()

	fields := Fields{
		"name":              "X",
		"input_data":        "v",
		"os_only":           " Windows, linux ,",
		"os_arm_skip":       "",
		"os_codebuild_only": "yes",
		"file_tmp":          "",
	}

	d, err := FromFields(0, fields, Options{CIMarker: "CI_MARKER"})
	require.NoError(t, err)
	assert.True(t, d.Materialize)
	assert.Equal(t, []Condition{
		PlatformOnly{Platforms: []string{"windows", "linux"}},
		ArchitectureExclude{Family: "arm"},
		ExecutionContextOnly{Marker: "CI_MARKER"},
	}, d.Conditions)
}

func TestFromFields_DefaultMarker(t *testing.T) {
	t.Parallel()

	d, err := FromFields(0, Fields{"name": "X", "os_codebuild_only": ""}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Condition{ExecutionContextOnly{Marker: DefaultCIMarker}}, d.Conditions)
}

func TestFromFields_EmptyPlatformList(t *testing.T) {
	t.Parallel()

	_, err := FromFields(0, Fields{"name": "X", "os_only": " , "}, Options{})
	var malformed *dserrors.MalformedDirectiveError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, KeyOSOnly, malformed.Field)
}

func TestFromFields_UnknownKeys(t *testing.T) {
	t.Parallel()

	d, err := FromFields(0, Fields{"name": "X", "zeta": "1", "alpha": "2"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, d.Unknown)
}

func TestAssumedRoleField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KeyInputRoleARN, AssumedRole{RoleARN: "a"}.Field())
	assert.Equal(t, KeyInputRoleARNSecret, AssumedRole{RoleARNSecret: "s"}.Field())
}
