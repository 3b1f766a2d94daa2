// Package tui holds the interactive feature picker shown by `stencil new`
// when no --features flag is given. It follows the bubbletea
// model/update/view architecture.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stencilworks/stencil/internal/registry"
)

var ErrAborted = errors.New("feature selection aborted")

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type featureItem struct {
	key         string
	name        string
	description string
	selected    bool
}

func (i featureItem) Title() string {
	box := "[ ]"
	if i.selected {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s", box, i.name)
}

func (i featureItem) Description() string { return i.description }
func (i featureItem) FilterValue() string { return i.name }

// Picker is a checkbox list over the registry's features. Space toggles,
// enter confirms, q or ctrl+c aborts.
type Picker struct {
	list    list.Model
	done    bool
	aborted bool
}

func NewPicker(features []registry.Feature) Picker {
	items := make([]list.Item, 0, len(features))
	for _, feat := range features {
		name := feat.Name
		if name == "" {
			name = feat.Key
		}
		items = append(items, featureItem{
			key:         feat.Key,
			name:        name,
			description: feat.Description,
		})
	}

	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 0, 0)
	l.Title = "Select features"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return Picker{list: l}
}

func (p Picker) Init() tea.Cmd {
	return nil
}

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width, msg.Height-2)
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			idx := p.list.Index()
			if item, ok := p.list.SelectedItem().(featureItem); ok {
				item.selected = !item.selected
				return p, p.list.SetItem(idx, item)
			}

		case "enter":
			p.done = true
			return p, tea.Quit

		case "q", "ctrl+c", "esc":
			p.aborted = true
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p Picker) View() string {
	if p.done || p.aborted {
		return ""
	}
	return p.list.View() + "\n" +
		helpStyle.Render("space toggle · enter confirm · q abort")
}

// Selected returns the toggled feature keys in list order, which becomes the
// selection order of the run.
func (p Picker) Selected() []string {
	var keys []string
	for _, item := range p.list.Items() {
		if feat, ok := item.(featureItem); ok && feat.selected {
			keys = append(keys, feat.key)
		}
	}
	return keys
}

// PickFeatures runs the picker and returns the chosen keys.
func PickFeatures(features []registry.Feature) ([]string, error) {
	program := tea.NewProgram(NewPicker(features))
	final, err := program.Run()
	if err != nil {
		return nil, err
	}

	picker, ok := final.(Picker)
	if !ok || picker.aborted {
		return nil, ErrAborted
	}
	return picker.Selected(), nil
}
