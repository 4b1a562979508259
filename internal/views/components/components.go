// Package components holds small HTML fragments shared by the pages.
package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// SidebarLink is one navigation entry.
type SidebarLink struct {
	Label   string
	Path    string
	Section string
}

// SidebarData drives the workspace navigation.
type SidebarData struct {
	Active   string
	Features []SidebarLink
}

// DefaultSidebar returns the navigation of the costing workspace.
func DefaultSidebar(active string) SidebarData {
	return SidebarData{
		Active: active,
		Features: []SidebarLink{
			{Label: "Costing", Path: "/app/costing", Section: "costing"},
			{Label: "Procurement", Path: "/app/procurement", Section: "procurement"},
			{Label: "Tools", Path: "/app/tools", Section: "tools"},
		},
	}
}

func linkState(section, active string) string {
	if section == active {
		return "active"
	}
	return "inactive"
}

// Sidebar renders the navigation list.
func Sidebar(data SidebarData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<nav class="sidebar"><ul>`)
		for _, link := range data.Features {
			fmt.Fprintf(&b, `<li><a href="%s" hx-boost="true" data-nav-section="%s" data-state="%s">%s</a></li>`,
				templ.EscapeString(link.Path),
				templ.EscapeString(link.Section),
				linkState(link.Section, data.Active),
				templ.EscapeString(link.Label),
			)
		}
		b.WriteString(`</ul><form method="post" action="/logout"><button type="submit">Sign out</button></form></nav>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// StatCard renders a headline figure.
func StatCard(label, value, delta, caption string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="stat-card"><p class="stat-label">%s</p><p class="stat-value">%s</p>`,
			templ.EscapeString(label), templ.EscapeString(value))
		if strings.TrimSpace(delta) != "" {
			fmt.Fprintf(&b, `<p class="stat-delta">%s</p>`, templ.EscapeString(delta))
		}
		if strings.TrimSpace(caption) != "" {
			fmt.Fprintf(&b, `<p class="stat-caption">%s</p>`, templ.EscapeString(caption))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// BannerKind selects the banner styling.
type BannerKind string

const (
	BannerInfo    BannerKind = "info"
	BannerWarning BannerKind = "warning"
	BannerError   BannerKind = "error"
)

// Banner renders a dismissible notice. Nothing is written for an empty message.
func Banner(kind BannerKind, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if strings.TrimSpace(message) == "" {
			return nil
		}
		role := "status"
		if kind != BannerInfo {
			role = "alert"
		}
		_, err := fmt.Fprintf(w, `<div class="banner banner-%s" role="%s">%s</div>`,
			templ.EscapeString(string(kind)), role, templ.EscapeString(message))
		return err
	})
}
