/*
Package gvm parses raw GVM/OpenVAS XML report documents into
severity-bucketed result summaries.

A report document wraps its results in a <report> element that may itself
be nested one level deeper inside the get_reports_response envelope:

	<get_reports_response status="200">
	  <report id="...">
	    <report id="...">
	      <results>
	        <result id="...">
	          <severity>9.5</severity>
	          ...

Parse locates the effective report element, buckets each result's CVSS
score by the fixed platform thresholds and returns the report-only
document for downstream import:

	rep, err := gvm.Parse(raw, reportID)
	if errors.Is(err, gvm.ErrEmptyReport) {
	    // report finished with zero results
	}

The package is pure: no I/O, no clock, no external state.
*/
package gvm
