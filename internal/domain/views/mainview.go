// Package views holds the tabbed diagnostic views and the main view that
// switches between them.
package views

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
)

var (
	ErrUnknownTab = errors.New("unknown tab")
	ErrHiddenTab  = errors.New("tab not available on this platform")
)

// CaptureStatus is what the status bar shows.
type CaptureStatus string

const (
	StatusCapturing CaptureStatus = "capturing"
	StatusHalted    CaptureStatus = "halted"
	StatusLoaded    CaptureStatus = "loaded"
)

// View is one tab. Tabs backed by feeds observe them while selected.
type View struct {
	main    *MainView
	id      TabID
	title   string
	visible bool
	feeds   []bridge.FeedName

	mu         sync.Mutex
	values     map[bridge.FeedName]any
	updates    int64
	lastUpdate time.Time
}

// OnFeedUpdate stores the value for display.
func (v *View) OnFeedUpdate(feed bridge.FeedName, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[feed] = value
	v.updates++
	v.lastUpdate = time.Now()
}

// IsActive reports whether the view is the selected tab.
func (v *View) IsActive() bool {
	return v.main.Selected() == v.id
}

// ViewState is a read-only copy of a view.
type ViewState struct {
	ID         TabID                   `json:"id"`
	Title      string                  `json:"title"`
	Anchor     string                  `json:"anchor"`
	Visible    bool                    `json:"visible"`
	Active     bool                    `json:"active"`
	Feeds      []bridge.FeedName       `json:"feeds,omitempty"`
	Values     map[bridge.FeedName]any `json:"values,omitempty"`
	Updates    int64                   `json:"updates"`
	LastUpdate time.Time               `json:"last_update"`
}

func (v *View) state() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	values := make(map[bridge.FeedName]any, len(v.values))
	for k, val := range v.values {
		values[k] = val
	}
	return ViewState{
		ID:         v.id,
		Title:      v.title,
		Anchor:     v.id.Anchor(),
		Visible:    v.visible,
		Active:     v.IsActive(),
		Feeds:      v.feeds,
		Values:     values,
		Updates:    v.updates,
		LastUpdate: v.lastUpdate,
	}
}

// MainView owns every tab and the bridge they observe.
type MainView struct {
	bridge    *bridge.Bridge
	logger    *logging.Logger
	views     []*View
	byID      map[TabID]*View
	anchorMap map[string]TabID

	mu               sync.RWMutex
	selected         TabID
	params           map[string]string
	status           CaptureStatus
	loadedFile       string
	viewingLoadedLog bool
	privacyStripping bool
}

// New creates every tab and subscribes the feed-backed ones to b.
func New(b *bridge.Bridge, logger *logging.Logger) *MainView {
	if logger == nil {
		logger = logging.NewNop()
	}
	mv := &MainView{
		bridge:           b,
		logger:           logger.For("views"),
		byID:             make(map[TabID]*View, len(tabSpecs)),
		anchorMap:        make(map[string]TabID, len(tabSpecs)+2),
		status:           StatusCapturing,
		privacyStripping: true,
	}

	for _, spec := range tabSpecs {
		v := &View{
			main:    mv,
			id:      spec.id,
			title:   spec.title,
			visible: spec.platform == "" || spec.platform == b.Platform(),
			feeds:   spec.feeds,
			values:  make(map[bridge.FeedName]any),
		}
		mv.views = append(mv.views, v)
		mv.byID[v.id] = v
		mv.anchorMap[v.id.Anchor()] = v.id

		if !v.visible {
			continue
		}
		for _, feed := range spec.feeds {
			if _, err := b.Observe(feed, v, true); err != nil {
				mv.logger.Debug("View feed unavailable", zap.String("tab", string(v.id)), zap.Error(err))
			}
		}
	}
	mv.anchorMap[""] = DefaultTab
	mv.anchorMap["#"] = DefaultTab

	return mv
}

// Start selects the tab named by hash and tells the host the page is
// ready, which also starts polling.
func (mv *MainView) Start(hash string) error {
	mv.Navigate(hash)
	return mv.bridge.SendReady()
}

// Navigate selects the tab named by a URL hash. Unknown anchors and hidden
// tabs are ignored; it reports whether the selection changed.
func (mv *MainView) Navigate(hash string) bool {
	nav := ParseHash(hash)
	id, ok := mv.anchorMap[nav.Anchor]
	if !ok {
		return false
	}
	return mv.SelectTab(id, nav.Params) == nil
}

// SelectTab makes a visible tab the active one.
func (mv *MainView) SelectTab(id TabID, params map[string]string) error {
	v, ok := mv.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTab, id)
	}
	if !v.visible {
		return fmt.Errorf("%w: %q", ErrHiddenTab, id)
	}

	mv.mu.Lock()
	mv.selected = id
	mv.params = params
	mv.mu.Unlock()

	mv.logger.Debug("Tab selected", zap.String("tab", string(id)), zap.Any("params", params))
	return nil
}

// Selected returns the active tab, empty before the first selection.
func (mv *MainView) Selected() TabID {
	mv.mu.RLock()
	defer mv.mu.RUnlock()
	return mv.selected
}

// Params returns the parameters the active tab was selected with.
func (mv *MainView) Params() map[string]string {
	mv.mu.RLock()
	defer mv.mu.RUnlock()
	return mv.params
}

// Tabs returns every tab in display order, hidden ones included.
func (mv *MainView) Tabs() []ViewState {
	out := make([]ViewState, 0, len(mv.views))
	for _, v := range mv.views {
		out = append(out, v.state())
	}
	return out
}

// View returns one tab.
func (mv *MainView) View(id TabID) (ViewState, error) {
	v, ok := mv.byID[id]
	if !ok {
		return ViewState{}, fmt.Errorf("%w: %q", ErrUnknownTab, id)
	}
	return v.state(), nil
}

// StopCapturing permanently cuts the bridge off from the host.
func (mv *MainView) StopCapturing() {
	mv.mu.Lock()
	if mv.status == StatusCapturing {
		mv.status = StatusHalted
	}
	mv.mu.Unlock()

	mv.bridge.Disable()
}

// OnLoadLog switches to viewing a loaded log. With a file name the status
// shows the file and privacy stripping is turned off so the dump displays
// as saved; without one it behaves like StopCapturing.
func (mv *MainView) OnLoadLog(fileName string) {
	mv.mu.Lock()
	mv.viewingLoadedLog = true
	if fileName != "" {
		mv.status = StatusLoaded
		mv.loadedFile = fileName
		mv.privacyStripping = false
	} else {
		mv.status = StatusHalted
	}
	mv.mu.Unlock()

	mv.bridge.Disable()
	mv.logger.Info("Viewing loaded log", zap.String("file", fileName))
}

// ViewingLoadedLog reports whether OnLoadLog has been called.
func (mv *MainView) ViewingLoadedLog() bool {
	mv.mu.RLock()
	defer mv.mu.RUnlock()
	return mv.viewingLoadedLog
}

// PrivacyStripping reports whether dumps hide cookies and credentials.
func (mv *MainView) PrivacyStripping() bool {
	mv.mu.RLock()
	defer mv.mu.RUnlock()
	return mv.privacyStripping
}

// SetPrivacyStripping toggles cookie and credential removal in dumps.
func (mv *MainView) SetPrivacyStripping(enabled bool) {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	mv.privacyStripping = enabled
}

// StatusInfo is the status bar content.
type StatusInfo struct {
	Status           CaptureStatus `json:"status"`
	LoadedFile       string        `json:"loaded_file,omitempty"`
	SelectedTab      TabID         `json:"selected_tab"`
	PrivacyStripping bool          `json:"privacy_stripping"`
}

// Status returns the status bar content.
func (mv *MainView) Status() StatusInfo {
	mv.mu.RLock()
	defer mv.mu.RUnlock()
	return StatusInfo{
		Status:           mv.status,
		LoadedFile:       mv.loadedFile,
		SelectedTab:      mv.selected,
		PrivacyStripping: mv.privacyStripping,
	}
}
