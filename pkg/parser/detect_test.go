package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestIdentifyEntityColumns(t *testing.T) {
	headers := []string{"event_id", "case:concept:name", "concept:name", "time:timestamp", "org:resource", "offer_id", "Application_ID"}

	got := IdentifyEntityColumns(headers)
	want := []EntityColumnHint{
		{Column: "case:concept:name", EntityType: "case"},
		{Column: "org:resource", EntityType: "resource"},
		{Column: "offer_id", EntityType: "offer"},
		{Column: "Application_ID", EntityType: "application"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("hints = %v, want %v", got, want)
	}
}

func TestReadCSVHeader(t *testing.T) {
	r := strings.NewReader("event_id,\"concept:name\",time:timestamp\ne1,a,1\n")
	headers, err := ReadCSVHeader(r, ',')
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	want := []string{"event_id", "concept:name", "time:timestamp"}
	if !reflect.DeepEqual(headers, want) {
		t.Errorf("headers = %v, want %v", headers, want)
	}
}
