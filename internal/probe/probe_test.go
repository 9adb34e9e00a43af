package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermigrate/pkg/records"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	batch := []records.Record{
		{"id": "a", "email": "a@x.com", "age": 30.0},
		{"id": "b", "email": "", "interests": []any{"x"}},
		{"id": "c", "email": "c@x.com", "age": "thirty"},
	}

	rep := Inspect(batch)

	assert.Equal(t, 3, rep.TotalRecords)
	assert.False(t, rep.Valid) // one empty email
	assert.Equal(t, 0, rep.RequiredNulls["id"])
	assert.Equal(t, 1, rep.RequiredNulls["email"])

	byName := map[string]FieldInfo{}
	for _, f := range rep.Fields {
		byName[f.Name] = f
	}

	age := byName["age"]
	assert.Equal(t, 2, age.Present)
	assert.Equal(t, 0, age.Empty)
	assert.Equal(t, []string{"number", "string"}, age.Kinds)

	email := byName["email"]
	assert.Equal(t, 3, email.Present)
	assert.Equal(t, 1, email.Empty)

	interests := byName["interests"]
	assert.Equal(t, []string{"list"}, interests.Kinds)
}

func TestInspectMissingRequiredField(t *testing.T) {
	t.Parallel()

	batch := []records.Record{
		{"email": "a@x.com"},
		{"email": "b@x.com"},
	}

	rep := Inspect(batch)
	assert.False(t, rep.Valid)
	assert.Equal(t, 2, rep.RequiredNulls["id"])
	assert.Equal(t, 0, rep.RequiredNulls["email"])
}

func TestInspectValidBatch(t *testing.T) {
	t.Parallel()

	batch := []records.Record{
		{"id": "a", "email": "a@x.com"},
	}

	rep := Inspect(batch)
	assert.True(t, rep.Valid)
}

func TestInspectEmptyBatch(t *testing.T) {
	t.Parallel()

	rep := Inspect(nil)
	assert.Equal(t, 0, rep.TotalRecords)
	assert.Empty(t, rep.Fields)
	require.Contains(t, rep.RequiredNulls, "id")
	assert.Equal(t, 0, rep.RequiredNulls["id"])
}

func TestFoldFieldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"createdAt", "created_at"},
		{"phoneNumber", "phone_number"},
		{"last_connexion", "last_connexion"},
		{"Prénom", "prenom"},
		{"Date de Création", "date_de_creation"},
		{"  padded  ", "padded"},
		{"with-dash.dot", "with_dash_dot"},
		{"UPPER", "u_p_p_e_r"},
		{"émail", "email"},
		{"***", "field"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldFieldName(tt.in), "input %q", tt.in)
	}
}
