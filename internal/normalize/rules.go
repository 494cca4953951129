package normalize

import (
	"strings"
)

const (
	newTabPrefix    = "new tab -"
	subWindowPrefix = "win"

	// SubWindow is the identity given to generic helper windows.
	SubWindow Identity = "sub_window"

	// structuredSeparator splits "<project> – <file>" titles (en-dash).
	structuredSeparator = " – "
)

// chatApps are matched anywhere in the title.
var chatApps = []struct {
	marker   string
	identity Identity
}{
	{"discord", "Discord"},
	{"telegram", "Telegram"},
	{"slack", "Slack"},
}

// innerTool is an application that runs inside a host window.
type innerTool struct {
	markers  []string
	identity Identity
}

// innerTools are checked in order; "nvim" must precede "vim".
var innerTools = []innerTool{
	{markers: []string{"nvim", "neovim"}, identity: "NeoVim"},
	{markers: []string{"vim"}, identity: "Vim"},
	{markers: []string{"helix", " hx "}, identity: "Helix"},
	{markers: []string{"lazygit"}, identity: "LazyGit"},
	{markers: []string{"htop", "btop"}, identity: "Top"},
}

// hosts maps lower-cased window classes of multi-context applications to
// their display names.
var hosts = map[string]Identity{
	"com.mitchellh.ghostty":  "Ghostty",
	"kitty":                  "Kitty",
	"alacritty":              "Alacritty",
	"foot":                   "Foot",
	"org.wezfurlong.wezterm": "WezTerm",
	"code":                   "VSCode",
	"code-oss":               "VSCode",
}

// structuredTools maps lower-cased window classes whose titles start with a
// project name to the tool's display name.
var structuredTools = map[string]string{
	"jetbrains-rustrover": "RustRover",
	"jetbrains-goland":    "GoLand",
	"jetbrains-idea":      "IntelliJ",
	"jetbrains-pycharm":   "PyCharm",
	"jetbrains-clion":     "CLion",
	"jetbrains-webstorm":  "WebStorm",
}

// DefaultRules returns the built-in cascade in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "chat", Apply: chatRule},
		{Name: "new-tab", Apply: newTabRule},
		{Name: "sub-window", Apply: subWindowRule},
		{Name: "host", Apply: hostRule},
		{Name: "structured-title", Apply: structuredTitleRule},
		{Name: "class-fallback", Apply: classFallbackRule},
		{Name: "title", Apply: titleRule},
	}
}

func chatRule(in Input) (Identity, bool) {
	for _, app := range chatApps {
		if strings.Contains(in.lowerTitle, app.marker) {
			return app.identity, true
		}
	}
	return Empty, false
}

// newTabRule strips the "new tab -" prefix. A bare prefix leaves nothing to
// name the window by, so it passes and the class is used instead.
func newTabRule(in Input) (Identity, bool) {
	if !hasPrefixFold(in.Title, newTabPrefix) {
		return Empty, false
	}
	rest := strings.TrimSpace(in.Title[len(newTabPrefix):])
	if rest == "" {
		return Empty, false
	}
	return Identity(rest), true
}

func subWindowRule(in Input) (Identity, bool) {
	if strings.HasPrefix(in.Title, subWindowPrefix) {
		return SubWindow, true
	}
	return Empty, false
}

func hostRule(in Input) (Identity, bool) {
	name, ok := hosts[in.lowerClass]
	if !ok {
		return Empty, false
	}
	for _, tool := range innerTools {
		for _, marker := range tool.markers {
			if strings.Contains(" "+in.lowerTitle+" ", marker) {
				return tool.identity, true
			}
		}
	}
	return name, true
}

func structuredTitleRule(in Input) (Identity, bool) {
	tool, ok := structuredTools[in.lowerClass]
	if !ok {
		return Empty, false
	}
	lead, _, found := strings.Cut(in.Title, structuredSeparator)
	lead = strings.TrimSpace(lead)
	if !found || lead == "" {
		return Identity(tool), true
	}
	return Identity(tool + " -> " + lead), true
}

func classFallbackRule(in Input) (Identity, bool) {
	if in.Title == "" && in.Class != "" {
		return Identity(in.Class), true
	}
	return Empty, false
}

// titleRule also catches a "new tab -" title with nothing after it, where the
// class is the only name left.
func titleRule(in Input) (Identity, bool) {
	if hasPrefixFold(in.Title, newTabPrefix) {
		if in.Class != "" {
			return Identity(in.Class), true
		}
		return Empty, true
	}
	if in.Title != "" {
		return Identity(in.Title), true
	}
	return Empty, false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
