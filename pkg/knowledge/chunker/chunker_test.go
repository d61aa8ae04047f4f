package chunker

import (
	"reflect"
	"strings"
	"testing"
)

const knowledgeBase = `About Me
Pratik is a product-minded engineer based in Pune.
He writes Go and TypeScript.

----------------------------------------
Company Name: Acme Corp
Title: Lead Engineer
Started On: Jan 2019
Finished On: Dec 2021
Description: Led the platform team.

School Name: State University
Degree Name: B.Tech Computer Science
Start Date: 2011
End Date: 2015

Skills: Go, Kubernetes, PostgreSQL
Tags: Backend, Cloud

Pratik worked at Acme Corp as Lead Engineer from 2019 to 2021.
`

func TestChunker_Sections(t *testing.T) {
	chunks := New().Chunk(knowledgeBase)

	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}

	about := chunks[0]
	if about.Metadata.Title != "About Me" {
		t.Errorf("expected title 'About Me', got %q", about.Metadata.Title)
	}
	if !strings.HasPrefix(about.Text, "Pratik is a product-minded engineer") {
		t.Errorf("unexpected body %q", about.Text)
	}

	exp := chunks[1]
	if exp.Metadata.Title != "Lead Engineer at Acme Corp" {
		t.Errorf("unexpected experience title %q", exp.Metadata.Title)
	}
	if !reflect.DeepEqual(exp.Metadata.Tags, []string{"experience"}) {
		t.Errorf("unexpected experience tags %v", exp.Metadata.Tags)
	}
	if !strings.Contains(exp.Text, "Company Name: Acme Corp") {
		t.Error("record chunks must keep their first line")
	}
	if !reflect.DeepEqual(exp.Metadata.Dates, []string{"Jan 2019", "Dec 2021"}) {
		t.Errorf("unexpected dates %v", exp.Metadata.Dates)
	}

	edu := chunks[2]
	if edu.Metadata.Title != "B.Tech Computer Science, State University" {
		t.Errorf("unexpected education title %q", edu.Metadata.Title)
	}
	if !reflect.DeepEqual(edu.Metadata.Dates, []string{"2011", "2015"}) {
		t.Errorf("unexpected education dates %v", edu.Metadata.Dates)
	}

	skills := chunks[3]
	if !reflect.DeepEqual(skills.Metadata.Tags, []string{"skills", "backend", "cloud"}) {
		t.Errorf("unexpected skills tags %v", skills.Metadata.Tags)
	}

	single := chunks[4]
	if single.Text != "Pratik worked at Acme Corp as Lead Engineer from 2019 to 2021." {
		t.Errorf("single-line section must keep its text, got %q", single.Text)
	}
	if !reflect.DeepEqual(single.Metadata.Dates, []string{"2019", "2021"}) {
		t.Errorf("unexpected dates %v", single.Metadata.Dates)
	}
}

func TestChunker_Empty(t *testing.T) {
	if chunks := New().Chunk("\n\n  \n---\n"); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunker_SplitsOversizedSections(t *testing.T) {
	sentence := "This sentence has exactly forty-four chars. "
	body := strings.Repeat(sentence, 30)
	text := "Long Section\n" + body

	chunks := New(WithMaxChars(100)).Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected oversized section to be split, got %d chunk(s)", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 100 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c.Text))
		}
		if c.Metadata.Title != "Long Section" {
			t.Errorf("chunk %d lost its title: %q", i, c.Metadata.Title)
		}
	}
}

func TestChunker_WindowsForUnbrokenText(t *testing.T) {
	text := "Title\n" + strings.Repeat("word ", 100) + strings.Repeat("x", 130)

	chunks := New(WithMaxChars(50)).Chunk(text)
	var total int
	for i, c := range chunks {
		if len(c.Text) > 50 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c.Text))
		}
		total += strings.Count(c.Text, "word")
	}
	if total != 100 {
		t.Errorf("expected all 100 words to survive splitting, got %d", total)
	}
}

func TestChunker_Deterministic(t *testing.T) {
	c := New(WithMaxChars(80))
	first := c.Chunk(knowledgeBase + strings.Repeat("Filler sentence here. ", 20))
	second := c.Chunk(knowledgeBase + strings.Repeat("Filler sentence here. ", 20))
	if !reflect.DeepEqual(first, second) {
		t.Error("chunking must be deterministic")
	}
}

func TestChunker_CustomProfiles(t *testing.T) {
	chunks := New(WithProfiles()).Chunk("Company Name: Acme Corp\nTitle: Lead Engineer")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.Title != "Company Name: Acme Corp" {
		t.Errorf("without profiles the first line is the title, got %q", chunks[0].Metadata.Title)
	}
	if len(chunks[0].Metadata.Tags) != 0 {
		t.Errorf("expected no tags, got %v", chunks[0].Metadata.Tags)
	}
}
