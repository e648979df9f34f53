// File path: internal/spec/template/template_test.go
package template

import (
	"errors"
	"testing"
)

const addressTemplateXML = `<DSTemplate szDescription="Address Lookup">
  <Template>
    <DSItem idItem="1" nSeq="2" szCopyWord="out" szDict="AN8" szField="AddressNumber"/>
    <DSItem idItem="2" nSeq="1" szCopyWord="IN" szDict="AL1" szField="Field1"/>
    <DSItem idItem="2" nSeq="9" szCopyWord="IN" szDict="DUP" szField="ShadowedDuplicate"/>
    <DSItem idItem="3" nSeq="3" szCopyWord="IN" szDict="MCU"/>
    <Group>
      <DSItem idItem="4" nSeq="4" szCopyWord="INOUT" szDict="DL01" szField="Description"/>
    </Group>
  </Template>
</DSTemplate>`

func TestParseTemplate(t *testing.T) {
	tmpl, err := Parse("D0100041", addressTemplateXML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tmpl.Name != "D0100041" {
		t.Fatalf("unexpected name %q", tmpl.Name)
	}
	if tmpl.Description != "Address Lookup" {
		t.Fatalf("unexpected description %q", tmpl.Description)
	}
	// Item 3 is missing szField and must be skipped; the rest parse,
	// including the nested one.
	if tmpl.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", tmpl.Len())
	}

	items := tmpl.Items()
	if items[0].ID != "2" || items[1].ID != "1" || items[2].ID != "4" {
		t.Fatalf("items not ordered by display sequence: %+v", items)
	}
	if items[0].CopyWord != "IN" || items[1].CopyWord != "OUT" {
		t.Fatalf("copy words not normalized: %+v", items[:2])
	}
}

func TestParseDuplicateItemFirstWins(t *testing.T) {
	tmpl, err := Parse("D0100041", addressTemplateXML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	item, ok := tmpl.TryGetItem("2")
	if !ok {
		t.Fatalf("item 2 missing")
	}
	if item.Alias != "AL1" || item.FieldName != "Field1" {
		t.Fatalf("duplicate id should keep first occurrence, got %+v", item)
	}
}

func TestParseBlankArguments(t *testing.T) {
	var validation *ValidationError
	if _, err := Parse("  ", addressTemplateXML); !errors.As(err, &validation) {
		t.Fatalf("blank name: expected ValidationError, got %v", err)
	}
	if _, err := Parse("D0100041", "   "); !errors.As(err, &validation) {
		t.Fatalf("blank payload: expected ValidationError, got %v", err)
	}
}

func TestParseMalformedPayload(t *testing.T) {
	if _, err := Parse("D0100041", "<DSTemplate><unterminated"); err == nil {
		t.Fatalf("expected parse error for malformed XML")
	}
	var validation *ValidationError
	if _, err := Parse("D0100041", "<DSTemplate><unterminated"); errors.As(err, &validation) {
		t.Fatalf("malformed XML must not be reported as a validation error")
	}
}

func TestParseEmptyTemplate(t *testing.T) {
	tmpl, err := Parse("D9999999", "<DSTemplate/>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tmpl.Len() != 0 {
		t.Fatalf("expected empty template")
	}
	if items := tmpl.Items(); len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}

func TestTryGetItemTotal(t *testing.T) {
	tmpl, err := Parse("D0100041", addressTemplateXML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := tmpl.TryGetItem(""); ok {
		t.Fatalf("blank id must not resolve")
	}
	if _, ok := tmpl.TryGetItem("99"); ok {
		t.Fatalf("unknown id must not resolve")
	}

	var nilTmpl *Template
	if _, ok := nilTmpl.TryGetItem("1"); ok {
		t.Fatalf("nil template must not resolve items")
	}
	if nilTmpl.Len() != 0 {
		t.Fatalf("nil template length must be zero")
	}
}

func TestItemDisplayName(t *testing.T) {
	item := Item{FieldName: "Field1", Alias: "AL1"}
	if got := item.DisplayName(); got != "Field1 [AL1]" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestFormattedListing(t *testing.T) {
	tmpl, err := Parse("D0100041", addressTemplateXML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "Template D0100041 - Address Lookup\n" +
		"   1  IN    Field1 [AL1]\n" +
		"   2  OUT   AddressNumber [AN8]\n" +
		"   4  INOUT Description [DL01]"
	if got := tmpl.Formatted(); got != want {
		t.Fatalf("unexpected listing:\n%s", got)
	}
}

func TestNormalizePayload(t *testing.T) {
	dirty := "\x00\x00  \ufeffgarbage<Template/>"
	cleaned := NormalizePayload(dirty)
	if cleaned != "<Template/>" {
		t.Fatalf("unexpected normalization result %q", cleaned)
	}
	if again := NormalizePayload(cleaned); again != cleaned {
		t.Fatalf("normalization is not idempotent: %q", again)
	}
}

func TestNormalizePayloadZeroWidth(t *testing.T) {
	if got := NormalizePayload("<Temp​late/>"); got != "<Template/>" {
		t.Fatalf("zero-width characters not removed: %q", got)
	}
}
