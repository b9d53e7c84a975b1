// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the interactive step player.
//
// # Description
//
// The player walks a recorded trace one step at a time, forwards and
// backwards, or plays it back at an adjustable pace. It only reads the
// trace it is given.
//
// # Thread Safety
//
// The model is meant for the bubbletea event loop. Do not share it across
// goroutines.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/sortviz/services/sortviz/algorithms"
	"github.com/AleutianAI/sortviz/services/sortviz/render"
)

// =============================================================================
// Key Bindings
// =============================================================================

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	First  key.Binding
	Last   key.Binding
	Play   key.Binding
	Faster key.Binding
	Slower key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		First:  key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		Last:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Play:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Play, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Play, k.Faster, k.Slower},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

// TickMsg advances playback. Ticks from an earlier play session are ignored.
type TickMsg struct {
	session int
}

// =============================================================================
// Config
// =============================================================================

// Interval bounds for playback speed.
const (
	MinInterval = 20 * time.Millisecond
	MaxInterval = 5 * time.Second
)

// PlayerConfig configures the player.
type PlayerConfig struct {
	// Interval is the delay between steps while playing.
	Interval time.Duration

	// Color enables styled output.
	Color bool

	// Autoplay starts playing immediately.
	Autoplay bool
}

// DefaultPlayerConfig returns a 250ms paused player.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{Interval: 250 * time.Millisecond}
}

// =============================================================================
// Model
// =============================================================================

// PlayerModel is the bubbletea model of the step player.
type PlayerModel struct {
	summary algorithms.Summary
	steps   []algorithms.Step

	index    int
	playing  bool
	session  int
	interval time.Duration

	keys     keyMap
	help     help.Model
	progress progress.Model
	renderer *render.Renderer
	title    lipgloss.Style

	width    int
	quitting bool
}

// NewPlayerModel creates a player over steps. The trace is not copied and
// must not be modified while the player runs.
func NewPlayerModel(summary algorithms.Summary, steps []algorithms.Step, config PlayerConfig) PlayerModel {
	interval := min(max(config.Interval, MinInterval), MaxInterval)
	m := PlayerModel{
		summary:  summary,
		steps:    steps,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient()),
		renderer: render.New(render.WithColor(config.Color)),
		title:    lipgloss.NewStyle().Bold(true),
		width:    80,
		playing:  config.Autoplay && len(steps) > 1,
	}
	if config.Color {
		m.title = m.title.Foreground(render.ColorTealBright)
	}
	return m
}

// Index returns the 0-based position of the current step.
func (m PlayerModel) Index() int { return m.index }

// Playing reports whether playback is running.
func (m PlayerModel) Playing() bool { return m.playing }

// Interval returns the playback delay.
func (m PlayerModel) Interval() time.Duration { return m.interval }

// Init implements tea.Model.
func (m PlayerModel) Init() tea.Cmd {
	if m.playing {
		return m.tick()
	}
	return nil
}

func (m PlayerModel) tick() tea.Cmd {
	session := m.session
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return TickMsg{session: session} })
}

// Update implements tea.Model.
func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil

	case TickMsg:
		if !m.playing || msg.session != m.session {
			return m, nil
		}
		if m.index < len(m.steps)-1 {
			m.index++
		}
		if m.index >= len(m.steps)-1 {
			m.playing = false
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.pause()
			m.index = min(m.index+1, max(len(m.steps)-1, 0))
		case key.Matches(msg, m.keys.Prev):
			m.pause()
			m.index = max(m.index-1, 0)
		case key.Matches(msg, m.keys.First):
			m.pause()
			m.index = 0
		case key.Matches(msg, m.keys.Last):
			m.pause()
			m.index = max(len(m.steps)-1, 0)
		case key.Matches(msg, m.keys.Play):
			if m.playing {
				m.pause()
				return m, nil
			}
			if len(m.steps) < 2 {
				return m, nil
			}
			if m.index >= len(m.steps)-1 {
				m.index = 0
			}
			m.playing = true
			m.session++
			return m, m.tick()
		case key.Matches(msg, m.keys.Faster):
			m.interval = max(m.interval/2, MinInterval)
		case key.Matches(msg, m.keys.Slower):
			m.interval = min(m.interval*2, MaxInterval)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m *PlayerModel) pause() {
	if m.playing {
		m.playing = false
		m.session++
	}
}

// View implements tea.Model.
func (m PlayerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.title.Render(m.summary.Algorithm))
	b.WriteString("\n\n")

	if len(m.steps) == 0 {
		b.WriteString("No steps recorded for this algorithm.\n\n")
		b.WriteString(m.renderer.Summary(m.summary))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	step := m.steps[m.index]
	state := "paused"
	if m.playing {
		state = fmt.Sprintf("playing every %s", m.interval)
	}
	fmt.Fprintf(&b, "Step %d of %d (%s)\n", m.index+1, len(m.steps), state)
	b.WriteString(m.progress.ViewAs(float64(m.index+1) / float64(len(m.steps))))
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Step(step))
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Bars(step))
	b.WriteString("\n\n")
	if m.index == len(m.steps)-1 {
		b.WriteString(m.renderer.Summary(m.summary))
		b.WriteString("\n\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run plays steps in the terminal until the user quits.
func Run(summary algorithms.Summary, steps []algorithms.Step, config PlayerConfig, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewPlayerModel(summary, steps, config), opts...)
	_, err := p.Run()
	return err
}
