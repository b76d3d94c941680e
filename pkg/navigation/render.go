package navigation

import (
	"strings"

	"github.com/telekom/infoasst-navshell/pkg/access"
	"github.com/telekom/infoasst-navshell/pkg/features"
)

// Fixed navigation targets.
const (
	PathChat    = "/"
	PathContent = "/content"
	PathTutor   = "/tutor"
	PathTabular = "/tda"
)

// Paths lists every navigation target in display order.
var Paths = []string{PathChat, PathContent, PathTutor, PathTabular}

// Link is one entry of the navigation list.
type Link struct {
	Path    string `json:"path"`
	Label   string `json:"label"`
	Preview bool   `json:"preview,omitempty"`
	Active  bool   `json:"active"`
}

// State is what a mounted shell knows so far. A nil Flags means no snapshot
// has been fetched.
type State struct {
	Flags  *features.Flags
	Access access.Status
}

// View is the render result for one state and route.
type View struct {
	Loading bool   `json:"loading"`
	Links   []Link `json:"links"`
}

// HasLink reports whether the view contains a link to path.
func (v View) HasLink(path string) bool {
	for _, l := range v.Links {
		if l.Path == path {
			return true
		}
	}
	return false
}

type optionalLink struct {
	path    string
	label   string
	feature features.Feature
}

var optionalLinks = []optionalLink{
	{path: PathTutor, label: "Math Assistant", feature: features.MathAssistant},
	{path: PathTabular, label: "Tabular Data Assistant", feature: features.TabularDataAssistant},
}

// Render computes the visible links. It only depends on its arguments.
func Render(state State, activePath string, loadingPlaceholder bool) View {
	if loadingPlaceholder && state.Access == access.Unknown {
		return View{Loading: true, Links: []Link{}}
	}

	links := make([]Link, 0, len(Paths))
	links = append(links, newLink(PathChat, "Chat", false, activePath))
	if state.Access == access.Granted {
		links = append(links, newLink(PathContent, "Manage Content", false, activePath))
	}
	for _, o := range optionalLinks {
		// Enabled is false on a nil snapshot
		if state.Flags.Enabled(o.feature) {
			links = append(links, newLink(o.path, o.label, true, activePath))
		}
	}
	return View{Links: links}
}

func newLink(path, label string, preview bool, activePath string) Link {
	return Link{Path: path, Label: label, Preview: preview, Active: isActive(path, activePath)}
}

// isActive follows router semantics: the root only matches itself, other
// targets also match their sub-paths.
func isActive(path, activePath string) bool {
	if activePath == "" {
		return false
	}
	if path == PathChat {
		return activePath == PathChat
	}
	return activePath == path || strings.HasPrefix(activePath, path+"/")
}
