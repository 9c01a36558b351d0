package meta

// Metadata holds the resolved model of one header. It is produced once by the
// model builder and shared read-only between the codec generator and the
// language generators.
type Metadata struct {
	Source      string             `json:"source" yaml:"source" toml:"source"`
	Digest      string             `json:"digest" yaml:"digest" toml:"digest"`
	Structs     []StructDescriptor `json:"structs" yaml:"structs" toml:"structs"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toml:"diagnostics,omitempty"`
}

// StructDescriptor is the canonical member model of one struct. Members keeps
// source declaration order and never contains Unsupported types.
type StructDescriptor struct {
	Name    string             `json:"name" yaml:"name" toml:"name"`
	CName   string             `json:"cName" yaml:"cName" toml:"cName"`
	Members []MemberDescriptor `json:"members" yaml:"members" toml:"members"`
}

// MemberDescriptor is one encoded member.
type MemberDescriptor struct {
	Name string         `json:"name" yaml:"name" toml:"name"`
	Type TypeDescriptor `json:"type" yaml:"type" toml:"type"`
}

// Struct returns the descriptor named name, or nil.
func (md *Metadata) Struct(name string) *StructDescriptor {
	for i := range md.Structs {
		if md.Structs[i].Name == name {
			return &md.Structs[i]
		}
	}
	return nil
}

// Member returns the member named name, or nil.
func (sd *StructDescriptor) Member(name string) *MemberDescriptor {
	for i := range sd.Members {
		if sd.Members[i].Name == name {
			return &sd.Members[i]
		}
	}
	return nil
}
