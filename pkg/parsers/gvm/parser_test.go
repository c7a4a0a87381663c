package gvm

import (
	"errors"
	"strings"
	"testing"
)

// Sample report with results nested one report element deep.
var nestedReport = `<get_reports_response status="200">
  <report id="outer-1">
    <report id="inner-1">
      <results start="1" max="100">
        <result id="r-1">
          <name>Critical finding</name>
          <severity>9.5</severity>
        </result>
        <result id="r-2">
          <name>Medium-ish finding</name>
          <severity>6.0</severity>
        </result>
        <result id="r-3">
          <name>Log entry</name>
          <severity>0.0</severity>
        </result>
      </results>
    </report>
  </report>
</get_reports_response>`

var flatReport = `<get_reports_response status="200">
  <report id="flat-1">
    <results>
      <result id="r-1"><severity>7.0</severity></result>
      <result id="r-2"><severity>3.99</severity></result>
      <result id="r-3"><severity>not-a-number</severity></result>
      <result id="r-4"></result>
    </results>
  </report>
</get_reports_response>`

var emptyReport = `<get_reports_response status="200">
  <report id="empty-1">
    <results start="1" max="100"></results>
  </report>
</get_reports_response>`

func TestParseNestedReport(t *testing.T) {
	rep, err := Parse([]byte(nestedReport), "fallback-id")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if rep.ReportID != "inner-1" {
		t.Errorf("expected report id inner-1, got %s", rep.ReportID)
	}
	if rep.TotalFindings != 3 {
		t.Errorf("expected 3 findings, got %d", rep.TotalFindings)
	}

	// 6.0 sits below the 7.0 high threshold and buckets as medium.
	want := Counts{Critical: 1, Medium: 1, Info: 1}
	if rep.Counts != want {
		t.Errorf("expected counts %+v, got %+v", want, rep.Counts)
	}
}

func TestParseSkipsUnparseableSeverity(t *testing.T) {
	rep, err := Parse([]byte(flatReport), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// r-3 has a non-numeric severity and is skipped; r-4 has no severity
	// element and counts as 0.0 (info).
	if rep.TotalFindings != 3 {
		t.Errorf("expected 3 findings, got %d", rep.TotalFindings)
	}

	want := Counts{High: 1, Low: 1, Info: 1}
	if rep.Counts != want {
		t.Errorf("expected counts %+v, got %+v", want, rep.Counts)
	}
}

func TestParseEmptyReport(t *testing.T) {
	_, err := Parse([]byte(emptyReport), "")
	if !errors.Is(err, ErrEmptyReport) {
		t.Errorf("expected ErrEmptyReport, got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<get_reports_response><report"), "")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	_, err = Parse([]byte("<something_else/>"), "")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for wrong envelope, got %v", err)
	}
}

func TestParseReportOnlyDocument(t *testing.T) {
	rep, err := Parse([]byte(nestedReport), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	doc := string(rep.Document)
	if !strings.HasPrefix(doc, `<report id="inner-1">`) {
		t.Errorf("document should start with the effective report element, got %.40s", doc)
	}
	if !strings.Contains(doc, "<results") || !strings.Contains(doc, `<result id="r-1">`) {
		t.Error("document should preserve the results subtree verbatim")
	}
	if strings.Contains(doc, "get_reports_response") {
		t.Error("document should not contain the response envelope")
	}
}

func TestBucketScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{9.0, "critical"},
		{9.5, "critical"},
		{8.99, "high"},
		{7.0, "high"},
		{6.99, "medium"},
		{4.0, "medium"},
		{3.99, "low"},
		{0.1, "low"},
		{0.0, "info"},
		{-1, "info"},
	}

	for _, tc := range cases {
		if got := BucketScore(tc.score); got != tc.want {
			t.Errorf("BucketScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
