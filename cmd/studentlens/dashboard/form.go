package dashboard

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/student"
)

// formField pairs a catalog spec with the raw text the user entered.
type formField struct {
	spec  student.Spec
	value string
}

// Form is the grouped student-profile editor shared by the form and
// what-if views. Categorical and boolean fields cycle with left/right;
// everything else is typed into a text input.
type Form struct {
	styles ui.Styles
	fields []formField
	groups []string
	focus  int
	input  textinput.Model

	errs    student.FieldErrors
	changed map[string]bool
}

func newForm(styles ui.Styles) *Form {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 64
	ti.Width = 32
	ti.TextStyle = styles.FieldFocused

	f := &Form{
		styles:  styles,
		groups:  student.Groups(),
		input:   ti,
		errs:    make(student.FieldErrors),
		changed: make(map[string]bool),
	}
	for _, spec := range student.Catalog() {
		f.fields = append(f.fields, formField{spec: spec})
	}
	f.syncInput()
	return f
}

// setRecord fills every field from rec and clears errors and markers.
func (f *Form) setRecord(rec student.Record) {
	for i := range f.fields {
		f.fields[i].value = rec.Get(f.fields[i].spec.Name)
	}
	f.errs = make(student.FieldErrors)
	f.changed = make(map[string]bool)
	f.syncInput()
}

// record parses the current values into a Record and validates it. Any
// problems are kept for inline display and returned to the caller.
func (f *Form) record() (student.Record, student.FieldErrors) {
	var rec student.Record
	errs := make(student.FieldErrors)
	for _, ff := range f.fields {
		if err := rec.Set(ff.spec.Name, ff.value); err != nil {
			errs[ff.spec.Name] = trimFieldPrefix(err.Error(), ff.spec.Name)
		}
	}
	if len(errs) == 0 {
		errs = rec.CheckFields()
	}
	f.errs = errs
	return rec, errs
}

// setChanged marks the fields that differ from the comparison baseline.
func (f *Form) setChanged(names []string) {
	f.changed = make(map[string]bool, len(names))
	for _, name := range names {
		f.changed[name] = true
	}
}

// Update routes one keypress. It reports whether the focused field's
// value changed, so the what-if view can push edits to the engine.
func (f *Form) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	spec := f.fields[f.focus].spec

	switch msg.Type {
	case tea.KeyUp, tea.KeyShiftTab:
		f.moveFocus(-1)
		return false, nil
	case tea.KeyDown, tea.KeyTab, tea.KeyEnter:
		f.moveFocus(1)
		return false, nil
	case tea.KeyLeft:
		if cycler(spec) {
			f.cycle(-1)
			return true, nil
		}
	case tea.KeyRight:
		if cycler(spec) {
			f.cycle(1)
			return true, nil
		}
	}

	if cycler(spec) {
		return false, nil
	}

	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if v := f.input.Value(); v != before {
		f.fields[f.focus].value = v
		f.validateField(f.focus)
		return true, cmd
	}
	return false, cmd
}

func (f *Form) moveFocus(delta int) {
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.syncInput()
}

// cycle steps a categorical or boolean field through its option set.
func (f *Form) cycle(delta int) {
	ff := &f.fields[f.focus]
	opts := ff.spec.Options
	if ff.spec.Kind == student.KindBool {
		opts = []string{"true", "false"}
	}
	if len(opts) == 0 {
		return
	}
	idx := 0
	for i, opt := range opts {
		if opt == ff.value {
			idx = i
			break
		}
	}
	ff.value = opts[(idx+delta+len(opts))%len(opts)]
	f.validateField(f.focus)
}

// syncInput points the text input at the focused field, or blurs it when
// the field cycles instead of typing.
func (f *Form) syncInput() {
	ff := f.fields[f.focus]
	if cycler(ff.spec) {
		f.input.Blur()
		return
	}
	f.input.SetValue(ff.value)
	f.input.Placeholder = ff.spec.Help
	f.input.CursorEnd()
	f.input.Focus()
}

// validateField re-checks a single field after an edit: first that the
// raw text parses, then that numeric values sit inside catalog bounds.
func (f *Form) validateField(i int) {
	ff := f.fields[i]
	var rec student.Record
	if err := rec.Set(ff.spec.Name, ff.value); err != nil {
		f.errs[ff.spec.Name] = trimFieldPrefix(err.Error(), ff.spec.Name)
		return
	}
	if ff.spec.Kind == student.KindInt || ff.spec.Kind == student.KindFloat {
		v, err := strconv.ParseFloat(strings.TrimSpace(ff.value), 64)
		if err == nil {
			if v < ff.spec.Min {
				f.errs[ff.spec.Name] = "must be >= " + strconv.FormatFloat(ff.spec.Min, 'f', -1, 64)
				return
			}
			if ff.spec.Bounded && v > ff.spec.Max {
				f.errs[ff.spec.Name] = "must be <= " + strconv.FormatFloat(ff.spec.Max, 'f', -1, 64)
				return
			}
		}
	}
	delete(f.errs, ff.spec.Name)
}

// cycler reports whether a field is edited by cycling options rather
// than typing.
func cycler(spec student.Spec) bool {
	return spec.Kind == student.KindCategorical || spec.Kind == student.KindBool
}

// trimFieldPrefix drops the "name: " prefix from a Set error so the
// message can sit next to the field it belongs to.
func trimFieldPrefix(msg, name string) string {
	return strings.TrimPrefix(msg, name+": ")
}

// View renders the grouped field list.
func (f *Form) View() string {
	var b strings.Builder
	for _, group := range f.groups {
		b.WriteString(f.styles.GroupHeading.Render(group) + "\n")
		for i := range f.fields {
			if f.fields[i].spec.Group != group {
				continue
			}
			b.WriteString(f.renderField(i) + "\n")
		}
	}
	return b.String()
}

// focusLine returns the rendered line index of the focused field, for
// keeping it visible inside a scrolling viewport. The group heading
// style carries a top margin, so each heading occupies two lines.
func (f *Form) focusLine() int {
	line := 0
	for _, group := range f.groups {
		line += 2
		for i := range f.fields {
			if f.fields[i].spec.Group != group {
				continue
			}
			if i == f.focus {
				return line
			}
			line++
		}
	}
	return 0
}

func (f *Form) renderField(i int) string {
	ff := f.fields[i]
	focused := i == f.focus

	marker := "  "
	if f.changed[ff.spec.Name] {
		marker = f.styles.Warning.Render("Δ") + " "
	}

	label := f.styles.FieldLabel.Render(ff.spec.Label)
	if focused {
		label = f.styles.FieldFocused.Copy().Width(24).Render(ff.spec.Label)
	}

	var value string
	switch {
	case focused && cycler(ff.spec):
		value = f.styles.FieldFocused.Render("< " + ff.value + " >")
	case focused:
		value = f.input.View()
	default:
		value = f.styles.FieldValue.Render(ff.value)
	}

	line := marker + label + " " + value
	if msg, ok := f.errs[ff.spec.Name]; ok {
		line += "  " + f.styles.FieldError.Render("✗ "+msg)
	}
	return line
}
