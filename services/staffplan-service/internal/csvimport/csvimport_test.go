package csvimport

import (
	"errors"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUsers(t *testing.T) {
	src := "firstName,lastName,email,jobTitle,departmentId\n" +
		"Ada,Lovelace,ada@example.com,Engineer,1\n" +
		"\"Grace\", Hopper ,grace@example.com,Admiral,2\n"

	users, err := Decode(strings.NewReader(src), Users)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, model.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", JobTitle: "Engineer", DepartmentID: 1}, users[0])
	assert.Equal(t, "Hopper", users[1].LastName)
}

func TestDecodePositionsOptionalEndDate(t *testing.T) {
	src := "\ufeffuserId,projectId,positionStartDate,positionEndDate,positionTitle,occupation\n" +
		"1,2,2024-01-01,,Dev,Backend\n" +
		"1,3,2024-02-01,2024-03-01,QA,Testing\n"

	positions, err := Decode(strings.NewReader(src), Positions)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Nil(t, positions[0].EndDate)
	assert.Equal(t, "2024-01-01", positions[0].StartDate.String())
	require.NotNil(t, positions[1].EndDate)
	assert.Equal(t, "2024-03-01", positions[1].EndDate.String())
}

func TestDecodeColumnOrderDoesNotMatter(t *testing.T) {
	projects, err := Decode(strings.NewReader("endDate,title,startDate\n,Apollo,2024-05-01\n"), Projects)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Apollo", projects[0].Title)
	assert.Nil(t, projects[0].EndDate)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{name: "empty file", src: "", line: 1},
		{name: "unknown column", src: "title,color\nA,red\n", line: 1},
		{name: "duplicate column", src: "title,title\nA,B\n", line: 1},
		{name: "bad integer", src: "firstName,departmentId\nAda,1\nBob,x\n", line: 3},
		{name: "bad date", src: "userId,positionStartDate\n1,01/02/2024\n", line: 2},
		{name: "wrong field count", src: "title\nA,B\n", line: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			switch {
			case strings.Contains(tc.src, "firstName"):
				_, err = Decode(strings.NewReader(tc.src), Users)
			case strings.Contains(tc.src, "userId"):
				_, err = Decode(strings.NewReader(tc.src), Positions)
			default:
				_, err = Decode(strings.NewReader(tc.src), Departments)
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
			var le *LineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tc.line, le.Line)
		})
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	departments, err := Decode(strings.NewReader("title\n"), Departments)
	require.NoError(t, err)
	assert.Empty(t, departments)
}
