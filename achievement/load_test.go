package achievement

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHeader = "ID,Title,Points,Description,Earned description,Image name (.png),Achievable multiple times,Hidden\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "achievements.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFooterRowIsSkipped(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"first_win,First Win,10,Win a match,You won a match,first_win,FALSE,FALSE\n"+
		"ten_wins,Ten Wins,25,Win ten matches,You won ten matches,ten_wins.png,TRUE,FALSE\n"+
		"secret,Secret Room,50,???,You found the secret room,secret,FALSE,TRUE\n"+
		"Total,,85,,,,,\n")

	records, err := Load(path, LoadOptions{LastRowIsFooter: true})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Load() returned %d records, want 3", len(records))
	}
	if got := records[len(records)-1].Title; got != "Secret Room" {
		t.Fatalf("last record title = %q, want %q", got, "Secret Room")
	}

	all, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load(no footer) error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("Load(no footer) returned %d records, want 4", len(all))
	}
}

func TestLoadFieldMapping(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"ten_wins,Ten Wins, 25 ,Win ten matches,You won ten matches,ten_wins,TRUE,true\n")

	records, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Record{
		ID:                "ten_wins",
		Title:             "Ten Wins",
		Points:            25,
		Description:       "Win ten matches",
		EarnedDescription: "You won ten matches",
		ImageName:         "ten_wins.png",
		Repeatable:        true,
		Hidden:            false,
	}
	if records[0] != want {
		t.Fatalf("record = %#v, want %#v", records[0], want)
	}
}

func TestLoadBooleanRequiresExactToken(t *testing.T) {
	cases := []struct {
		cell string
		want bool
	}{
		{"TRUE", true},
		{"true", false},
		{"True", false},
		{" TRUE", false},
		{"1", false},
		{"", false},
	}

	for _, tc := range cases {
		rows := sampleHeader + "a,A,1,d,e,img," + tc.cell + "," + tc.cell + "\n"
		records, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{})
		if err != nil {
			t.Fatalf("Read(%q) error: %v", tc.cell, err)
		}
		if records[0].Repeatable != tc.want || records[0].Hidden != tc.want {
			t.Fatalf("cell %q: repeatable=%v hidden=%v, want %v", tc.cell, records[0].Repeatable, records[0].Hidden, tc.want)
		}
	}
}

func TestLoadCustomTrueValue(t *testing.T) {
	rows := sampleHeader + "a,A,1,d,e,img,Yes,No\n"
	records, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{TrueValue: "Yes"})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !records[0].Repeatable || records[0].Hidden {
		t.Fatalf("record = %#v, want repeatable only", records[0])
	}
}

func TestLoadMissingColumn(t *testing.T) {
	rows := "ID,Title,Points,Description,Earned description,Achievable multiple times,Hidden\n" +
		"a,A,1,d,e,FALSE,FALSE\n"

	_, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Read() error = %v, want *ParseError", err)
	}
	if pe.Column != "Image name (.png)" {
		t.Fatalf("ParseError.Column = %q, want image column", pe.Column)
	}
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Read() error = %v, want ErrMissingColumn", err)
	}
}

func TestLoadNonNumericPoints(t *testing.T) {
	rows := sampleHeader +
		"a,A,1,d,e,img,FALSE,FALSE\n" +
		"b,B,lots,d,e,img,FALSE,FALSE\n"

	records, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{})
	if records != nil {
		t.Fatalf("Read() returned %d records, want none on error", len(records))
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Read() error = %v, want *ParseError", err)
	}
	if pe.Line != 3 || pe.Column != "Points" {
		t.Fatalf("ParseError = %+v, want line 3 column Points", pe)
	}
}

func TestLoadNegativePoints(t *testing.T) {
	rows := sampleHeader + "a,A,-5,d,e,img,FALSE,FALSE\n"
	if _, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{}); err == nil {
		t.Fatal("Read() with negative points succeeded, want error")
	}
}

func TestLoadByteOrderMark(t *testing.T) {
	rows := "\ufeff" + sampleHeader + "a,A,1,d,e,img,FALSE,FALSE\n"
	records, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if records[0].ID != "a" {
		t.Fatalf("ID = %q, want a", records[0].ID)
	}
}

func TestLoadCustomColumns(t *testing.T) {
	rows := "Key,Name,Score,Before,After,Icon (.jpg),Repeat,Secret\n" +
		"a,A,3,d,e,icon,TRUE,FALSE\n"
	cols := Columns{
		ID:                "Key",
		Title:             "Name",
		Points:            "Score",
		Description:       "Before",
		EarnedDescription: "After",
		Image:             "Icon (.jpg)",
		Repeatable:        "Repeat",
		Hidden:            "Secret",
	}
	records, err := Read(strings.NewReader(rows), "test.csv", LoadOptions{Columns: cols})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if records[0].ImageName != "icon.jpg" || records[0].Points != 3 || !records[0].Repeatable {
		t.Fatalf("record = %#v", records[0])
	}
}

func TestLoadFooterOnlyFile(t *testing.T) {
	records, err := Read(strings.NewReader(sampleHeader), "test.csv", LoadOptions{LastRowIsFooter: true})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Read() returned %d records, want 0", len(records))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{}); err == nil {
		t.Fatal("Load() of missing file succeeded, want error")
	}
}
