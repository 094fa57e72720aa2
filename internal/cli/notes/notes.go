package notes

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/julianstephens/markease/internal/ai"
	"github.com/julianstephens/markease/internal/cli"
	"github.com/julianstephens/markease/internal/markdown"
	"github.com/julianstephens/markease/internal/models"
	notesvc "github.com/julianstephens/markease/internal/notes"
)

type NoteCmd struct {
	New      NoteNewCmd      `cmd:"" help:"Create a note."`
	List     NoteListCmd     `cmd:"" help:"List notes."`
	Show     NoteShowCmd     `cmd:"" help:"Print a note's markdown, raw or rendered."`
	Edit     NoteEditCmd     `cmd:"" help:"Change a note's title or content."`
	Rm       NoteRmCmd       `cmd:"" help:"Delete a note."`
	Export   NoteExportCmd   `cmd:"" help:"Write a note to a .md file."`
	Improve  NoteImproveCmd  `cmd:"" help:"Rewrite a note with the AI assistant."`
	Continue NoteContinueCmd `cmd:"" help:"Let the AI assistant continue a note."`
}

type NoteNewCmd struct {
	Title   string `arg:"" optional:"" help:"Note title."`
	Content string `help:"Markdown content."`
	File    string `help:"Read content from a file." type:"existingfile"`
}

func (c *NoteNewCmd) Run(ctx *cli.Context) error {
	content := c.Content
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c.File, err)
		}
		content = string(data)
	}

	note, err := ctx.Notes().Create(c.Title, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Created note %s (%s)\n", shortID(note.ID), note.Title)
	return nil
}

type NoteListCmd struct{}

func (c *NoteListCmd) Run(ctx *cli.Context) error {
	list := ctx.Notes().List()
	if len(list) == 0 {
		fmt.Fprintln(ctx.Out, "No notes yet. Create one with 'markease note new'.")
		return nil
	}

	w := tabwriter.NewWriter(ctx.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
	for _, n := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", shortID(n.ID), n.Title, n.Updated().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type NoteShowCmd struct {
	ID     string `arg:"" help:"Note ID or prefix."`
	Render bool   `short:"r" help:"Render the markdown for the terminal."`
	Style  string `default:"dark" enum:"dark,light,notty,ascii" help:"Render style."`
	Width  int    `default:"80" help:"Wrap width when rendering."`
}

func (c *NoteShowCmd) Run(ctx *cli.Context) error {
	note, err := ctx.Notes().Get(c.ID)
	if err != nil {
		return err
	}
	if !c.Render {
		fmt.Fprintln(ctx.Out, note.Content)
		return nil
	}
	out, err := markdown.NewRenderer(c.Style).Render(note.Content, c.Width)
	if err != nil {
		return err
	}
	fmt.Fprint(ctx.Out, out)
	return nil
}

type NoteEditCmd struct {
	ID      string  `arg:"" help:"Note ID or prefix."`
	Title   *string `help:"New title."`
	Content *string `help:"Replace the content."`
	File    string  `help:"Replace the content with a file's contents." type:"existingfile"`
	Append  string  `help:"Append a line to the content."`
}

func (c *NoteEditCmd) Run(ctx *cli.Context) error {
	svc := ctx.Notes()
	note, err := svc.Get(c.ID)
	if err != nil {
		return err
	}

	changed := false
	if c.Title != nil {
		note.Title = *c.Title
		changed = true
	}
	if c.Content != nil {
		note.Content = *c.Content
		changed = true
	}
	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c.File, err)
		}
		note.Content = string(data)
		changed = true
	}
	if c.Append != "" {
		note.Content = strings.TrimRight(note.Content, "\n") + "\n" + c.Append
		changed = true
	}

	if !changed {
		fmt.Fprintln(ctx.Out, "No changes specified. Use --title, --content, --file or --append.")
		return nil
	}
	if _, err := svc.Save(note); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Updated note %s\n", shortID(note.ID))
	return nil
}

type NoteRmCmd struct {
	ID string `arg:"" help:"Note ID or prefix."`
}

func (c *NoteRmCmd) Run(ctx *cli.Context) error {
	if err := ctx.Notes().Delete(c.ID); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "Note deleted.")
	return nil
}

type NoteExportCmd struct {
	ID  string `arg:"" help:"Note ID or prefix."`
	Dir string `help:"Output directory (defaults to notes.export_dir)."`
}

func (c *NoteExportCmd) Run(ctx *cli.Context) error {
	dir := c.Dir
	if dir == "" {
		dir = ctx.Config.Notes.ExportDir
	}
	path, err := ctx.Notes().Export(c.ID, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Exported to %s\n", path)
	return nil
}

type NoteImproveCmd struct {
	ID          string `arg:"" help:"Note ID or prefix."`
	Preset      string `help:"Preset instruction: grammar, summarize, polish or generic." default:"generic" enum:"grammar,summarize,polish,generic"`
	Instruction string `help:"Custom instruction (overrides --preset)."`
	Apply       bool   `help:"Apply the suggestion to the note instead of printing it."`
}

func (c *NoteImproveCmd) Run(ctx *cli.Context) error {
	svc := ctx.Notes()
	note, err := svc.Get(c.ID)
	if err != nil {
		return err
	}
	assistant, err := ctx.AI()
	if err != nil {
		return err
	}

	instruction := c.Instruction
	if instruction == "" {
		preset, err := ai.ParsePreset(c.Preset)
		if err != nil {
			return err
		}
		instruction = preset.Instruction(ctx.Lang())
	}

	suggestion, err := assistant.Improve(context.Background(), note.Content, instruction)
	if err != nil {
		return err
	}
	return finish(ctx, svc, note, suggestion, c.Apply)
}

type NoteContinueCmd struct {
	ID    string `arg:"" help:"Note ID or prefix."`
	Apply bool   `help:"Apply the continuation to the note."`
}

func (c *NoteContinueCmd) Run(ctx *cli.Context) error {
	svc := ctx.Notes()
	note, err := svc.Get(c.ID)
	if err != nil {
		return err
	}
	assistant, err := ctx.AI()
	if err != nil {
		return err
	}

	var b strings.Builder
	err = assistant.ContinueWriting(context.Background(), note.Content, func(chunk string) {
		b.WriteString(chunk)
		if !c.Apply {
			fmt.Fprint(ctx.Out, chunk)
		}
	})
	if err != nil {
		return err
	}
	if !c.Apply {
		fmt.Fprintln(ctx.Out)
		return nil
	}
	return finish(ctx, svc, note, b.String(), true)
}

func finish(ctx *cli.Context, svc *notesvc.Service, note models.Note, suggestion string, apply bool) error {
	if !apply {
		fmt.Fprintln(ctx.Out, suggestion)
		return nil
	}
	note.Content = notesvc.ApplySuggestion(note.Content, suggestion)
	if _, err := svc.Save(note); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Applied suggestion to %s\n", shortID(note.ID))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
