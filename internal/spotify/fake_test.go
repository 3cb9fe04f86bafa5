package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/toozej/curator/internal/types"
	"github.com/zmb3/spotify/v2"
)

// fakeAPI is an in-memory catalog. Request options are opaque, so every read returns
// the whole collection in one page; tests keep collections below the page sizes.
type fakeAPI struct {
	mu sync.Mutex

	userID       string
	catalog      map[spotify.ID]spotify.FullTrack
	playlists    map[spotify.ID][]spotify.FullTrack
	names        map[spotify.ID]string
	descriptions map[spotify.ID]string
	owned        []spotify.SimplePlaylist
	saved        []spotify.FullTrack
	player       *spotify.PlayerState
	results      []spotify.FullTrack

	calls     []string
	failOn    map[string]error
	lastQuery string
	lastPlay  *spotify.PlayOptions
	lastSeek  int
	created   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		userID:       "me",
		catalog:      map[spotify.ID]spotify.FullTrack{},
		playlists:    map[spotify.ID][]spotify.FullTrack{},
		names:        map[spotify.ID]string{},
		descriptions: map[spotify.ID]string{},
		failOn:       map[string]error{},
	}
}

// fullTrack builds a catalog track whose URI derives from id.
func fullTrack(id, name, artist string) spotify.FullTrack {
	var t spotify.FullTrack
	t.ID = spotify.ID(id)
	t.URI = spotify.URI("spotify:track:" + id)
	t.Name = name
	t.Artists = []spotify.SimpleArtist{{Name: artist}}
	t.Duration = 200000
	t.Popularity = 60
	t.Album.ReleaseDate = "2020-05-01"
	return t
}

// ref is the TrackRef the engine would hold for a catalog track.
func ref(t spotify.FullTrack) types.TrackRef {
	return TrackFromFull(&t)
}

func (f *fakeAPI) register(tracks ...spotify.FullTrack) {
	for _, t := range tracks {
		f.catalog[t.ID] = t
	}
}

func (f *fakeAPI) call(name string) error {
	f.calls = append(f.calls, name)
	return f.failOn[name]
}

func (f *fakeAPI) uris(playlistID spotify.ID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.playlists[playlistID]))
	for i, t := range f.playlists[playlistID] {
		out[i] = string(t.URI)
	}
	return out
}

func (f *fakeAPI) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*spotify.PrivateUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CurrentUser"); err != nil {
		return nil, err
	}
	var u spotify.PrivateUser
	u.ID = f.userID
	return &u, nil
}

func (f *fakeAPI) CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CurrentUsersPlaylists"); err != nil {
		return nil, err
	}
	return &spotify.SimplePlaylistPage{Playlists: slices.Clone(f.owned)}, nil
}

func (f *fakeAPI) CreatePlaylistForUser(ctx context.Context, userID, playlistName, description string, public bool, collaborative bool) (*spotify.FullPlaylist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreatePlaylistForUser"); err != nil {
		return nil, err
	}
	f.created++
	id := spotify.ID(fmt.Sprintf("new%d", f.created))
	f.playlists[id] = nil
	f.names[id] = playlistName
	f.descriptions[id] = description

	var p spotify.FullPlaylist
	p.ID = id
	p.Name = playlistName
	return &p, nil
}

func (f *fakeAPI) GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetPlaylistItems"); err != nil {
		return nil, err
	}

	page := &spotify.PlaylistItemPage{}
	tracks := f.playlists[playlistID]
	if err := json.Unmarshal(fmt.Appendf(nil, `{"total":%d}`, len(tracks)), page); err != nil {
		return nil, err
	}
	for i := range tracks {
		t := tracks[i]
		page.Items = append(page.Items, spotify.PlaylistItem{Track: spotify.PlaylistItemTrack{Track: &t}})
	}
	return page, nil
}

func (f *fakeAPI) AddTracksToPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AddTracksToPlaylist"); err != nil {
		return "", err
	}
	for _, id := range trackIDs {
		t, ok := f.catalog[id]
		if !ok {
			return "", fmt.Errorf("unknown track %s", id)
		}
		f.playlists[playlistID] = append(f.playlists[playlistID], t)
	}
	return "snapshot", nil
}

func (f *fakeAPI) RemoveTracksFromPlaylist(ctx context.Context, playlistID spotify.ID, trackIDs ...spotify.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("RemoveTracksFromPlaylist"); err != nil {
		return "", err
	}
	f.playlists[playlistID] = slices.DeleteFunc(f.playlists[playlistID], func(t spotify.FullTrack) bool {
		return slices.Contains(trackIDs, t.ID)
	})
	return "snapshot", nil
}

func (f *fakeAPI) ReorderPlaylistTracks(ctx context.Context, playlistID spotify.ID, opt spotify.PlaylistReorderOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ReorderPlaylistTracks"); err != nil {
		return "", err
	}

	tracks := f.playlists[playlistID]
	start, length, before := int(opt.RangeStart), int(opt.RangeLength), int(opt.InsertBefore)
	if start+length > len(tracks) || before > len(tracks) {
		return "", fmt.Errorf("reorder out of range")
	}
	if before >= start && before <= start+length {
		return "snapshot", nil
	}
	moved := slices.Clone(tracks[start : start+length])
	rest := slices.Delete(slices.Clone(tracks), start, start+length)
	if before > start {
		before -= length
	}
	f.playlists[playlistID] = slices.Insert(rest, before, moved...)
	return "snapshot", nil
}

func (f *fakeAPI) ChangePlaylistName(ctx context.Context, playlistID spotify.ID, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ChangePlaylistName"); err != nil {
		return err
	}
	f.names[playlistID] = newName
	return nil
}

func (f *fakeAPI) ChangePlaylistDescription(ctx context.Context, playlistID spotify.ID, newDescription string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ChangePlaylistDescription"); err != nil {
		return err
	}
	f.descriptions[playlistID] = newDescription
	return nil
}

func (f *fakeAPI) CurrentUsersTracks(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedTrackPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CurrentUsersTracks"); err != nil {
		return nil, err
	}
	page := &spotify.SavedTrackPage{}
	for _, t := range f.saved {
		page.Tracks = append(page.Tracks, spotify.SavedTrack{FullTrack: t})
	}
	return page, nil
}

func (f *fakeAPI) savedIndex(id spotify.ID) int {
	return slices.IndexFunc(f.saved, func(t spotify.FullTrack) bool { return t.ID == id })
}

func (f *fakeAPI) UserHasTracks(ctx context.Context, ids ...spotify.ID) ([]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UserHasTracks"); err != nil {
		return nil, err
	}
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = f.savedIndex(id) >= 0
	}
	return out, nil
}

func (f *fakeAPI) AddTracksToLibrary(ctx context.Context, ids ...spotify.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AddTracksToLibrary"); err != nil {
		return err
	}
	for _, id := range ids {
		if f.savedIndex(id) < 0 {
			t, ok := f.catalog[id]
			if !ok {
				t = fullTrack(string(id), string(id), "Unknown")
			}
			f.saved = append(f.saved, t)
		}
	}
	return nil
}

func (f *fakeAPI) RemoveTracksFromLibrary(ctx context.Context, ids ...spotify.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("RemoveTracksFromLibrary"); err != nil {
		return err
	}
	f.saved = slices.DeleteFunc(f.saved, func(t spotify.FullTrack) bool {
		return slices.Contains(ids, t.ID)
	})
	return nil
}

func (f *fakeAPI) PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("PlayerState"); err != nil {
		return nil, err
	}
	return f.player, nil
}

func (f *fakeAPI) PlayOpt(ctx context.Context, opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPlay = opt
	return f.call("PlayOpt")
}

func (f *fakeAPI) PauseOpt(ctx context.Context, opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPlay = opt
	return f.call("PauseOpt")
}

func (f *fakeAPI) NextOpt(ctx context.Context, opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPlay = opt
	return f.call("NextOpt")
}

func (f *fakeAPI) PreviousOpt(ctx context.Context, opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPlay = opt
	return f.call("PreviousOpt")
}

func (f *fakeAPI) SeekOpt(ctx context.Context, position int, opt *spotify.PlayOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeek = position
	return f.call("SeekOpt")
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	if err := f.call("Search"); err != nil {
		return nil, err
	}
	if f.results == nil {
		return &spotify.SearchResult{}, nil
	}
	return &spotify.SearchResult{Tracks: &spotify.FullTrackPage{Tracks: slices.Clone(f.results)}}, nil
}
