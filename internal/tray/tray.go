package tray

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/logging"
	"github.com/petems/recordnote/internal/minutes"
)

const pollInterval = 100 * time.Millisecond

// Controller is the part of app.Controller the tray drives.
type Controller interface {
	Start(title string) (app.Session, error)
	Stop(ctx context.Context) (*minutes.Document, error)
	Reset()
	Snapshot() app.Snapshot
	ListDevices() ([]audio.AudioDevice, error)
	SetDevice(id string) error
}

// Exporter writes and copies finished minutes.
type Exporter interface {
	SaveMinutes(doc *minutes.Document) (string, error)
	Copy(doc *minutes.Document) error
}

type UI struct {
	ctrl    Controller
	export  Exporter
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	kick chan struct{}
	quit chan struct{}

	// Menu items
	mStatus  *systray.MenuItem
	mStart   *systray.MenuItem
	mStop    *systray.MenuItem
	mReset   *systray.MenuItem
	mCopy    *systray.MenuItem
	mFolder  *systray.MenuItem
	mDevices *systray.MenuItem

	current view
}

// Status update methods for the controller to call. They only schedule a
// refresh; the poll loop reads the snapshot.
func (u *UI) SetIdle()                { u.refreshSoon() }
func (u *UI) SetRecording()           { u.refreshSoon() }
func (u *UI) SetProcessing()          { u.refreshSoon() }
func (u *UI) SetCompleted()           { u.refreshSoon() }
func (u *UI) SetError(message string) { u.refreshSoon() }

func New(export Exporter, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		export:  export,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
		kick:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

// SetController sets the controller reference (for circular dependency resolution)
func (u *UI) SetController(ctrl Controller) {
	u.ctrl = ctrl
}

func (u *UI) refreshSoon() {
	select {
	case u.kick <- struct{}{}:
	default:
	}
}

// Run blocks until Quit. It must be called from the main goroutine.
func (u *UI) Run(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			systray.Quit()
		case <-u.quit:
		}
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTitle(fmt.Sprintf("🎤 %s", emojiForState(app.StateStopped)))
	systray.SetTooltip("Meeting minutes recorder")

	// Build menu
	u.mStatus = systray.AddMenuItem("Ready", "Current status")
	u.mStatus.Disable()
	systray.AddSeparator()

	u.mStart = systray.AddMenuItem("Start Recording", "Record a new meeting")
	u.mStop = systray.AddMenuItem("Stop & Transcribe", "Stop recording and create minutes")
	u.mReset = systray.AddMenuItem("New Recording", "Discard the current session")
	systray.AddSeparator()

	u.mCopy = systray.AddMenuItem("Copy Minutes", "Copy the minutes to the clipboard")
	u.mFolder = systray.AddMenuItem("Open Minutes Folder", u.cfg.Output.Dir)
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About recordnote")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.apply(render(u.ctrl.Snapshot()))

	go u.poll()
	go u.handleEvents(mLogs, mAbout, mQuit)
}

// poll is the presenter's own refresh loop; the controller never pushes
// rendering work.
func (u *UI) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-u.quit:
			return
		case <-ticker.C:
		case <-u.kick:
		}
		u.apply(render(u.ctrl.Snapshot()))
	}
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStart.ClickedCh:
			u.startRecording()
		case <-u.mStop.ClickedCh:
			go u.stopRecording()
		case <-u.mReset.ClickedCh:
			u.ctrl.Reset()
		case <-u.mCopy.ClickedCh:
			u.copyMinutes()
		case <-u.mFolder.ClickedCh:
			u.open(u.cfg.Output.Dir)
		case <-mLogs.ClickedCh:
			u.open(logging.LogPath())
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) startRecording() {
	if _, err := u.ctrl.Start(u.cfg.Title); err != nil {
		u.log.Error().Err(err).Msg("Could not start recording")
	}
}

// stopRecording blocks for the length of transcription, so it runs off the
// menu goroutine.
func (u *UI) stopRecording() {
	doc, err := u.ctrl.Stop(context.Background())
	if err != nil {
		u.log.Error().Err(err).Msg("Recording did not produce minutes")
		return
	}

	path, err := u.export.SaveMinutes(doc)
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to save minutes")
		return
	}
	u.log.Info().Str("path", path).Msg("Minutes saved")
}

func (u *UI) copyMinutes() {
	doc := u.ctrl.Snapshot().Document
	if doc == nil {
		return
	}
	if err := u.export.Copy(doc); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy minutes")
		return
	}
	u.log.Info().Msg("Minutes copied to clipboard")
}

func (u *UI) buildDeviceMenu() {
	// Get devices from controller
	devices, err := u.ctrl.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	deviceItems := make(map[string]*systray.MenuItem)

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(dev.Name, "")
		if dev.ID == u.cfg.Audio.DeviceID || (u.cfg.Audio.DeviceID == "" && dev.Default) {
			item.Check()
		}
		deviceItems[dev.ID] = item

		go func(deviceID, deviceName string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := u.ctrl.SetDevice(deviceID); err != nil {
					u.log.Warn().Err(err).Msg("Cannot change device now")
					continue
				}
				// Uncheck all other items
				for id, itm := range deviceItems {
					if id != deviceID {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.log.Info().Str("device", deviceName).Msg("Changed audio device")
			}
		}(dev.ID, dev.Name, item)
	}
}

func (u *UI) apply(v view) {
	if v == u.current {
		return
	}
	u.current = v

	systray.SetTitle(v.title)
	systray.SetTooltip(v.tooltip)
	u.mStatus.SetTitle(v.status)
	setEnabled(u.mStart, v.canStart)
	setEnabled(u.mStop, v.canStop)
	setEnabled(u.mReset, v.canReset)
	setEnabled(u.mCopy, v.canCopy)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func (u *UI) open(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open")
		return
	}
	go cmd.Wait()
}

func (u *UI) showAbout() {
	fmt.Printf("recordnote %s (%s)\nMeeting minutes recorder\n", u.version, u.commit)
}

func (u *UI) onExit() {
	close(u.quit)
	u.ctrl.Reset()
}

// view is everything the tray shows for one snapshot.
type view struct {
	title    string
	tooltip  string
	status   string
	canStart bool
	canStop  bool
	canReset bool
	canCopy  bool
}

func render(snap app.Snapshot) view {
	v := view{
		title:   fmt.Sprintf("🎤 %s", emojiForState(snap.State)),
		tooltip: "Meeting minutes recorder",
	}

	switch snap.State {
	case app.StateStopped:
		v.status = "Ready"
		if snap.LastErr != nil {
			v.status = "Ready (" + apperr.UserMessage(snap.LastErr) + ")"
		}
		v.canStart = true
	case app.StateRecording:
		v.status = "Recording " + minutes.FormatDuration(snap.Recorded)
		if snap.Session != nil {
			v.tooltip = snap.Session.Title
		}
		v.canStop = true
		v.canReset = true
	case app.StateProcessing:
		v.status = "Transcribing " + minutes.FormatDuration(snap.Recorded) + " of audio"
		v.canReset = true
	case app.StateCompleted:
		v.status = "Minutes ready"
		if snap.Document != nil {
			v.status = fmt.Sprintf("Minutes ready (%d segments)", snap.Document.Len())
			v.canCopy = true
		}
		v.canReset = true
	case app.StateError:
		v.status = "Error: " + apperr.UserMessage(snap.LastErr)
		v.canReset = true
	}
	return v
}

// emojiForState returns the appropriate status emoji
func emojiForState(s app.State) string {
	switch s {
	case app.StateRecording:
		return "🔴" // Red - recording
	case app.StateProcessing:
		return "🟡" // Yellow - processing transcription
	case app.StateCompleted:
		return "📝" // Minutes ready
	case app.StateError:
		return "⚪️" // White - error
	default:
		return "🟢" // Green - ready/idle
	}
}
