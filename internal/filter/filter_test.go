package filter

import "testing"

func TestFilterString(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want string
	}{
		{"name eq", NameEq("foo"), "name:eq:foo"},
		{"type eq folder", TypeEq("folder"), "type:eq:folder"},
		{"contains", NameContains("repo"), "name:cn:repo"},
		{"parent path", ParentPathEq("/room/sub/"), "parentPath:eq:/room/sub/"},
		{"ge", Filter{Field: "size", Op: OpGreaterEq, Value: "1024"}, "size:ge:1024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	got := Combine(NameEq("foo"), TypeEq("folder"))
	if got != "name:eq:foo|type:eq:folder" {
		t.Errorf("Combine = %q", got)
	}

	if got := Combine(); got != "" {
		t.Errorf("empty Combine = %q", got)
	}

	if got := Combine(NameEq("x")); got != "name:eq:x" {
		t.Errorf("single Combine = %q", got)
	}
}

func TestCombineSorts(t *testing.T) {
	got := CombineSorts(Sort{Field: "name", Order: Ascending})
	if got != "name:asc" {
		t.Errorf("CombineSorts = %q", got)
	}

	got = CombineSorts(
		Sort{Field: "updatedAt", Order: Descending},
		Sort{Field: "name", Order: Ascending},
	)
	if got != "updatedAt:desc|name:asc" {
		t.Errorf("CombineSorts = %q", got)
	}
}
