package flatfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filipesuhett/academic-system/internal/grading"
)

func TestReadStudentsSkipsCommentsAndBlankLines(t *testing.T) {
	input := "# students\nAlice;111;2024001\n\n Bruno ; 222 ; 2024002 \n"

	students, err := ReadStudents(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []grading.Student{
		{Name: "Alice", NationalID: "111", EnrollmentID: "2024001"},
		{Name: "Bruno", NationalID: "222", EnrollmentID: "2024002"},
	}, students)
}

func TestReadStudentsReportsMalformedLine(t *testing.T) {
	_, err := ReadStudents(strings.NewReader("Alice;111;2024001\nBroken;line\n"))
	require.ErrorIs(t, err, ErrMalformedRecord)
	require.Contains(t, err.Error(), "line 2")
}

func TestReadTeachersParsesSalary(t *testing.T) {
	teachers, err := ReadTeachers(strings.NewReader("Hilario;999;5500.5\n"))
	require.NoError(t, err)
	require.Equal(t, []grading.Teacher{{Name: "Hilario", NationalID: "999", Salary: 5500.5}}, teachers)

	_, err = ReadTeachers(strings.NewReader("Hilario;999;lots\n"))
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestStoreAppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "data"))

	students, err := store.LoadStudents()
	require.NoError(t, err)
	require.Empty(t, students, "missing file loads as empty")

	require.NoError(t, store.AppendStudent(grading.Student{Name: "Ana;Maria", NationalID: "1", EnrollmentID: "10"}))
	require.NoError(t, store.AppendStudent(grading.Student{Name: "Bia", NationalID: "2", EnrollmentID: "11"}))
	require.NoError(t, store.AppendTeacher(grading.Teacher{Name: "Filipe", NationalID: "3", Salary: 1000}))

	raw, err := os.ReadFile(filepath.Join(dir, "data", StudentsFile))
	require.NoError(t, err)
	require.Equal(t, "Ana,Maria;1;10\nBia;2;11\n", string(raw))

	students, err = store.LoadStudents()
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "Ana,Maria", students[0].Name)

	teachers, err := store.LoadTeachers()
	require.NoError(t, err)
	require.Equal(t, []grading.Teacher{{Name: "Filipe", NationalID: "3", Salary: 1000}}, teachers)
}
