package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorJSON(t *testing.T) {
	anon, err := json.Marshal(VisitorView{Visitor: Visitor{ID: 1}})
	require.NoError(t, err)
	assert.Contains(t, string(anon), `"created_by":"visitor"`)

	staff, err := json.Marshal(VisitorView{
		Visitor:   Visitor{ID: 2},
		CreatedBy: Creator{Username: "amina", Role: RoleReceptionist},
	})
	require.NoError(t, err)
	assert.Contains(t, string(staff), `"created_by":{"username":"amina","role":"receptionist"}`)

	var back VisitorView
	require.NoError(t, json.Unmarshal(staff, &back))
	assert.Equal(t, Creator{Username: "amina", Role: RoleReceptionist}, back.CreatedBy)

	require.NoError(t, json.Unmarshal(anon, &back))
	assert.True(t, back.CreatedBy.IsVisitor())
}

func TestCreateVisitorRequestNormalize(t *testing.T) {
	blank := "  "
	req := CreateVisitorRequest{
		FullName: "  Ali Noor ",
		Gender:   " Male ",
		TimeOut:  &blank,
		Notes:    &blank,
	}
	req.Normalize()
	assert.Equal(t, "Ali Noor", req.FullName)
	assert.Equal(t, GenderMale, req.Gender)
	assert.Nil(t, req.TimeOut)
	assert.Nil(t, req.Notes)
}

func TestVisitorPatchChanges(t *testing.T) {
	name := "Hodan Ali"
	p := VisitorPatch{FullName: &name, ClearNotes: true}
	assert.Equal(t, []string{"fullname", "notes"}, p.Changes())
	assert.Empty(t, (&VisitorPatch{}).Changes())
}

func TestDateRangeBounds(t *testing.T) {
	d := DateRange{
		Start: time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 3, 1, 0, 0, 0, time.UTC),
	}
	from, to := d.Bounds(nil)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), to)
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 0, VisitorQuery{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, VisitorQuery{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, VisitorQuery{Page: 0, Limit: 10}.Offset())

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
}
