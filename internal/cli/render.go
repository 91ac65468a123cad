package cli

import (
	"fmt"
	"io"
	"strings"

	"homesite/internal/site"
	"homesite/pkg/logger"

	"github.com/fatih/color"
)

var (
	titleColor = color.New(color.FgHiBlue, color.Bold)
	dimColor   = color.New(color.FgHiBlack)
	tagColor   = color.New(color.FgCyan)
	alertColor = color.New(color.FgRed, color.Bold)
	noteColor  = color.New(color.FgGreen)
)

const timeLayout = "2006-01-02 15:04"

// renderSafely renders f, replacing a crashing render with a fallback notice.
func renderSafely(w io.Writer, f site.Frame) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Sugar.Errorf("Render crashed: %v", rec)
			fmt.Fprintln(w, alertColor.Sprint("Something went wrong showing this page. Try another tab."))
		}
	}()
	render(w, f)
}

func render(w io.Writer, f site.Frame) {
	renderHeader(w, f)

	switch v := f.View.(type) {
	case site.HomeView:
		renderHome(w, v)
	case site.AboutView:
		renderAbout(w)
	case site.BlogListView:
		renderBlogList(w, v, f.Admin)
	case site.BlogDetailView:
		renderBlogDetail(w, v, f.Admin)
	case site.GuestbookView:
		renderGuestbook(w, v)
	default:
		panic(fmt.Sprintf("no render path for %T", f.View))
	}

	if f.Editor != nil {
		renderEditor(w, *f.Editor)
	}
}

func renderHeader(w io.Writer, f site.Frame) {
	tabs := make([]string, 0, len(site.Tabs))
	for _, t := range site.Tabs {
		name := t.String()
		if f.View != nil && f.View.Tab() == t {
			name = titleColor.Sprintf("[%s]", name)
		}
		tabs = append(tabs, name)
	}
	mode := ""
	if f.Admin {
		mode = " | admin"
	}
	fmt.Fprintf(w, "%s   online: %d%s\n", strings.Join(tabs, "  "), f.Online, mode)
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func renderHome(w io.Writer, v site.HomeView) {
	fmt.Fprintln(w, "Notes on learning and life. Say hello in the guestbook.")
	if v.Latest != nil {
		fmt.Fprintf(w, "Latest: %s %s\n", titleColor.Sprint(v.Latest.Title), dimColor.Sprint("• "+v.Latest.Date))
	}
}

func renderAbout(w io.Writer) {
	fmt.Fprintln(w, titleColor.Sprint("About"))
	fmt.Fprintln(w, "A personal site with a blog and a guestbook.")
}

func renderBlogList(w io.Writer, v site.BlogListView, admin bool) {
	filters := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		label := "#" + t
		if t == site.AllTags {
			label = "ALL"
		}
		if t == v.Filter {
			label = titleColor.Sprintf("[%s]", label)
		}
		filters = append(filters, label)
	}
	fmt.Fprintln(w, "Filter: "+strings.Join(filters, " "))
	if admin {
		fmt.Fprintln(w, noteColor.Sprint("(new) write a post"))
	}

	if len(v.Posts) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("Nothing under this tag yet..."))
		return
	}
	for _, p := range v.Posts {
		fmt.Fprintf(w, "\n%s %s %s\n", dimColor.Sprintf("#%d", p.ID), titleColor.Sprint(p.Title), dimColor.Sprintf("%s • %d views", p.Date, p.Views))
		if len(p.Tags) > 0 {
			fmt.Fprintln(w, tagColor.Sprint(hashTags(p.Tags)))
		}
		fmt.Fprintln(w, p.Excerpt)
	}
}

func renderBlogDetail(w io.Writer, v site.BlogDetailView, admin bool) {
	p := v.Post
	fmt.Fprintln(w, dimColor.Sprint("(back) return to the list"))
	fmt.Fprintln(w, titleColor.Sprint(p.Title))
	fmt.Fprintln(w, dimColor.Sprint(p.Date)+"  "+tagColor.Sprint(hashTags(p.Tags)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Content)
	fmt.Fprintln(w)

	updated := ""
	if !p.UpdatedAt.IsZero() {
		updated = "Last edited " + p.UpdatedAt.Local().Format(timeLayout) + " • "
	}
	fmt.Fprintln(w, dimColor.Sprintf("%s%d views", updated, p.Views))
	if admin {
		fmt.Fprintln(w, noteColor.Sprintf("(edit %d) edit this post", p.ID))
	}

	fmt.Fprintf(w, "\nDiscussion (%d)\n", len(v.Comments))
	if len(v.Comments) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No comments yet. Be the first."))
	}
	for _, c := range v.Comments {
		fmt.Fprintf(w, "%s %s\n%s\n", titleColor.Sprint(c.Name), dimColor.Sprint(c.CreatedAt.Local().Format(timeLayout)), c.Content)
	}
	renderForm(w, v.Identity, v.Draft, "comment")
}

func renderGuestbook(w io.Writer, v site.GuestbookView) {
	fmt.Fprintln(w, titleColor.Sprint("Guestbook"))
	if v.Loading {
		fmt.Fprintln(w, dimColor.Sprint("Loading..."))
	}
	for _, c := range v.Comments {
		name := titleColor.Sprint(c.Name)
		if c.Website != nil && *c.Website != "" {
			name += " " + tagColor.Sprint(displayWebsite(*c.Website))
		}
		fmt.Fprintf(w, "\n%s %s\n%s\n", name, dimColor.Sprint(c.CreatedAt.Local().Format(timeLayout)), c.Content)
	}
	if !v.Loading && len(v.Comments) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No messages yet."))
	}
	renderForm(w, v.Identity, v.Draft, "message")
}

func renderForm(w io.Writer, ident site.Identity, draft, command string) {
	fmt.Fprintln(w)
	who := "anonymous"
	if ident.Name != "" {
		who = ident.Name
	}
	remember := ""
	if ident.Remember {
		remember = " (remembered)"
	}
	fmt.Fprintln(w, dimColor.Sprintf("Signed as %s%s. (sign) change, (%s) write", who, remember, command))
	if draft != "" {
		fmt.Fprintln(w, dimColor.Sprint("Unsent: ")+draft)
	}
}

func renderEditor(w io.Writer, e site.EditorView) {
	heading := "Editing post"
	if e.Creating {
		heading = "New post"
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, titleColor.Sprint(heading))
	fmt.Fprintf(w, "Title: %s\nDate:  %s\nTags:  %s\n", e.Draft.Title, e.Draft.Date, e.Draft.Tags)
	fmt.Fprintln(w, dimColor.Sprint(site.Excerpt(e.Draft.Content)))
	actions := "(write) fill in, (save), (cancel)"
	if !e.Creating {
		actions += fmt.Sprintf(", (delete %d)", e.PostID)
	}
	fmt.Fprintln(w, noteColor.Sprint(actions))
}

func hashTags(tags []string) string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "#" + t
	}
	return strings.Join(out, " ")
}

// displayWebsite drops the scheme from a visitor's website.
func displayWebsite(addr string) string {
	addr = strings.TrimPrefix(addr, "https://")
	return strings.TrimPrefix(addr, "http://")
}

func alert(w io.Writer, msg string) {
	fmt.Fprintln(w, alertColor.Sprint("[ALERT] ")+msg)
}

func notice(w io.Writer, msg string) {
	fmt.Fprintln(w, noteColor.Sprint(msg))
}
