package domain

// EntryKind distinguishes folders from files in a directory listing.
type EntryKind string

const (
	EntryFolder EntryKind = "folder"
	EntryFile   EntryKind = "file"
)

// DirectoryEntry is one entry of a recursive workspace listing.
type DirectoryEntry struct {
	// Name is the base name.
	Name string

	// RelativePath is slash-separated and relative to the workspace root.
	RelativePath string

	// Kind is folder or file.
	Kind EntryKind

	// Depth is 1 for direct children of the root.
	Depth int
}

// FolderPaths returns the relative paths of folder entries, in listing order.
func FolderPaths(entries []DirectoryEntry) []string {
	var folders []string
	for _, e := range entries {
		if e.Kind == EntryFolder {
			folders = append(folders, e.RelativePath)
		}
	}
	return folders
}

// RecommendRequest is the input to a destination recommendation.
type RecommendRequest struct {
	// StagedPath is the file being classified.
	StagedPath string

	// FileName is the original file name, which may differ from the staged one.
	FileName string

	// Candidates are the workspace-relative folders to choose from.
	Candidates []string

	// Description is the content description, if one was produced.
	Description string
}

// Recommendation is a suggested destination plus alternatives.
type Recommendation struct {
	// Recommended is the workspace-relative destination.
	Recommended string

	// Alternatives are other plausible destinations, best first.
	Alternatives []string

	// Confidence is between 0 and 1.
	Confidence float64

	// Reasoning is a short explanation for display.
	Reasoning string
}
