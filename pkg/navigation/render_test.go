package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/infoasst-navshell/pkg/access"
	"github.com/telekom/infoasst-navshell/pkg/features"
)

func paths(v View) []string {
	out := make([]string, 0, len(v.Links))
	for _, l := range v.Links {
		out = append(out, l.Path)
	}
	return out
}

func count(v View, path string) int {
	n := 0
	for _, l := range v.Links {
		if l.Path == path {
			n++
		}
	}
	return n
}

func TestRenderUnknownFlagsHidesOptionalLinks(t *testing.T) {
	for _, status := range []access.Status{access.Unknown, access.Granted, access.Denied} {
		v := Render(State{Flags: nil, Access: status}, "/", false)
		assert.False(t, v.HasLink(PathTutor), status.String())
		assert.False(t, v.HasLink(PathTabular), status.String())
	}
}

func TestRenderOnlyEnabledOptionalLinks(t *testing.T) {
	flags := features.NewFlags(map[features.Feature]bool{
		features.MathAssistant:        true,
		features.TabularDataAssistant: false,
	})
	v := Render(State{Flags: flags, Access: access.Denied}, "/", false)

	require.Equal(t, []string{PathChat, PathTutor}, paths(v))
	math := v.Links[1]
	assert.Equal(t, "Math Assistant", math.Label)
	assert.True(t, math.Preview)
	assert.False(t, v.Links[0].Preview, "chat is not a preview")
}

func TestRenderAllFlagsFalseMatchesUnknown(t *testing.T) {
	allFalse := features.NewFlags(map[features.Feature]bool{})
	assert.Equal(t,
		Render(State{Flags: nil, Access: access.Denied}, "/", false),
		Render(State{Flags: allFalse, Access: access.Denied}, "/", false))
}

func TestRenderChatAlwaysPresent(t *testing.T) {
	snapshots := map[string]*features.Flags{
		"unknown":   nil,
		"none":      features.NewFlags(nil),
		"all":       features.NewFlags(map[features.Feature]bool{features.MathAssistant: true, features.TabularDataAssistant: true}),
		"unrelated": features.NewFlags(map[features.Feature]bool{features.WebChat: false, features.Multimedia: true}),
	}
	for name, flags := range snapshots {
		for _, status := range []access.Status{access.Unknown, access.Granted, access.Denied} {
			v := Render(State{Flags: flags, Access: status}, "/tda", false)
			assert.Equal(t, 1, count(v, PathChat), "%s/%s", name, status)
			assert.Equal(t, PathChat, v.Links[0].Path)
		}
	}
}

func TestRenderManageContentOnlyWhenGranted(t *testing.T) {
	cases := []struct {
		status access.Status
		want   int
	}{
		{status: access.Unknown, want: 0},
		{status: access.Denied, want: 0},
		{status: access.Granted, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.status.String(), func(t *testing.T) {
			v := Render(State{Access: tc.status}, "/", false)
			assert.Equal(t, tc.want, count(v, PathContent))
		})
	}
}

func TestRenderFullNavigationOrder(t *testing.T) {
	flags := features.NewFlags(map[features.Feature]bool{features.MathAssistant: true, features.TabularDataAssistant: true})
	v := Render(State{Flags: flags, Access: access.Granted}, "/content", false)
	assert.Equal(t, []string{PathChat, PathContent, PathTutor, PathTabular}, paths(v))
	assert.Equal(t, []string{"Chat", "Manage Content", "Math Assistant", "Tabular Data Assistant"},
		[]string{v.Links[0].Label, v.Links[1].Label, v.Links[2].Label, v.Links[3].Label})
	assert.False(t, v.Loading)
}

func TestRenderLoadingPlaceholder(t *testing.T) {
	flags := features.NewFlags(map[features.Feature]bool{features.MathAssistant: true})

	v := Render(State{Flags: flags, Access: access.Unknown}, "/", true)
	assert.True(t, v.Loading)
	assert.Empty(t, v.Links)
	assert.NotNil(t, v.Links)

	// placeholder ends once access is known, whatever the outcome
	assert.False(t, Render(State{Flags: flags, Access: access.Denied}, "/", true).Loading)
	assert.False(t, Render(State{Flags: flags, Access: access.Granted}, "/", true).Loading)
	// policy off: unknown access renders the partial navigation
	assert.Equal(t, []string{PathChat, PathTutor}, paths(Render(State{Flags: flags}, "/", false)))
}

func TestRenderActiveRoute(t *testing.T) {
	flags := features.NewFlags(map[features.Feature]bool{features.MathAssistant: true, features.TabularDataAssistant: true})
	state := State{Flags: flags, Access: access.Granted}

	cases := []struct {
		active string
		want   string
	}{
		{active: "/", want: PathChat},
		{active: "/content", want: PathContent},
		{active: "/tutor", want: PathTutor},
		{active: "/tutor/session/1", want: PathTutor},
		{active: "/tda", want: PathTabular},
		{active: "/tdax", want: ""},
		{active: "/unknown", want: ""},
		{active: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.active, func(t *testing.T) {
			var active []string
			for _, l := range Render(state, tc.active, false).Links {
				if l.Active {
					active = append(active, l.Path)
				}
			}
			if tc.want == "" {
				assert.Empty(t, active)
				return
			}
			assert.Equal(t, []string{tc.want}, active)
		})
	}
}
