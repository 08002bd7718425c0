package catalog

import "testing"

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"iPhone 15 Pro":        "iphone-15-pro",
		"  Screen  Repair!! ": "screen-repair",
		"Ça va":                "a-va",
		"---":                  "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsID(t *testing.T) {
	if !IsID("3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f") {
		t.Error("expected uuid")
	}
	if IsID("phones") {
		t.Error("slug treated as id")
	}
}

func TestEnsureSlug(t *testing.T) {
	got, err := EnsureSlug("", "Refurbished Phones")
	if err != nil || got != "refurbished-phones" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := EnsureSlug("", "!!!"); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdateCategoryRequest_Apply(t *testing.T) {
	name := "Tablets"
	active := false
	c := Category{Name: "Phones", Slug: "phones", IsActive: true}
	(&UpdateCategoryRequest{Name: &name, IsActive: &active}).Apply(&c)
	if c.Name != "Tablets" || c.IsActive || c.Slug != "phones" {
		t.Fatalf("unexpected category: %+v", c)
	}
}
