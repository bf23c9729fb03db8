package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCheckIn() CreateVisitorRequest {
	return CreateVisitorRequest{
		FullName:    "Ali Noor",
		PhoneNumber: "0615551234",
		Gender:      GenderMale,
		Address:     "Hodan",
		Visiting:    "Finance",
		Reason:      "Meeting",
		TimeIn:      "09:30",
	}
}

func TestValidateCheckIn(t *testing.T) {
	req := validCheckIn()
	assert.NoError(t, Validate(&req))
}

func TestValidateReportsBlankFields(t *testing.T) {
	blanks := map[string]func(r *CreateVisitorRequest){
		"fullname":     func(r *CreateVisitorRequest) { r.FullName = "   " },
		"phone_number": func(r *CreateVisitorRequest) { r.PhoneNumber = "" },
		"gender":       func(r *CreateVisitorRequest) { r.Gender = "" },
		"address":      func(r *CreateVisitorRequest) { r.Address = " " },
		"visiting":     func(r *CreateVisitorRequest) { r.Visiting = "" },
		"reason":       func(r *CreateVisitorRequest) { r.Reason = "" },
		"timeIn":       func(r *CreateVisitorRequest) { r.TimeIn = "  " },
	}

	for field, blank := range blanks {
		t.Run(field, func(t *testing.T) {
			req := validCheckIn()
			blank(&req)
			req.Normalize()

			err := Validate(&req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var de *Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, []string{field}, de.Fields)
		})
	}
}

func TestValidateCustomTags(t *testing.T) {
	req := validCheckIn()
	req.Address = "Atlantis"
	req.Gender = "other"
	err := Validate(&req)
	require.Error(t, err)
	var de *Error
	require.True(t, errors.As(err, &de))
	assert.ElementsMatch(t, []string{"address", "gender"}, de.Fields)

	assert.NoError(t, Validate(&UpdateRoleRequest{Role: RoleReceptionist}))
	assert.Error(t, Validate(&UpdateRoleRequest{Role: "owner"}))
}

func TestValidatePatchSkipsAbsentFields(t *testing.T) {
	assert.NoError(t, Validate(&VisitorPatch{}))

	bad := "Nowhere"
	assert.Error(t, Validate(&VisitorPatch{Address: &bad}))

	good := "Karan"
	assert.NoError(t, Validate(&VisitorPatch{Address: &good}))
}

func TestValidatePatchRejectsBlankValues(t *testing.T) {
	blank := ""
	err := Validate(&VisitorPatch{FullName: &blank})
	require.Error(t, err)
	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"fullname"}, de.Fields)
}
