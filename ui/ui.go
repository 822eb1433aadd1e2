package ui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fitfinder/fitfinder/asset"
	"github.com/fitfinder/fitfinder/config"
	"github.com/fitfinder/fitfinder/pkg/capture"
	"github.com/fitfinder/fitfinder/pkg/detect"
	"github.com/fitfinder/fitfinder/pkg/photo"
	"github.com/fitfinder/fitfinder/pkg/session"
	"github.com/fitfinder/fitfinder/util"
	"github.com/fitfinder/fitfinder/util/log"
)

// FitApp represents the application
type FitApp struct {
	app      fyne.App
	assetMgr *asset.Manager
	cfg      *config.AppConfig
	sess     *session.Session
	bridge   *capture.Server
	window   fyne.Window
	view     *Recommender

	helpMenu   *fyne.Menu
	updateItem *fyne.MenuItem
}

var (
	instance *FitApp   // Singleton instance of the application
	once     sync.Once // Ensures the singleton is created only once
)

// GetInstance returns the singleton instance of the application
func GetInstance() *FitApp {
	once.Do(func() {
		instance = newFitApp(app.NewWithID(config.AppID))
	})
	return instance
}

func newFitApp(a fyne.App) *FitApp {
	fa := &FitApp{
		app:      a,
		assetMgr: asset.NewManager(),
		cfg:      config.NewAppConfig(a.Preferences()),
	}

	if icon, err := fa.assetMgr.GetIcon(asset.AppIcon); err == nil {
		a.SetIcon(icon)
	}

	fa.sess = session.New(
		&prefDetector{cfg: fa.cfg},
		session.WithMarketplaceURL(fa.cfg.GetMarketplaceURL),
	)
	fa.reloadPersonHinter()

	fa.window = a.NewWindow(config.AppName)

	var bridge CameraBridge
	bridgeErr := fa.startBridge()
	if bridgeErr == nil {
		bridge = fa.bridge
	}
	fa.view = NewRecommender(fa.window, fa.sess, bridge, a.OpenURL)
	if bridgeErr != nil {
		log.Printf("Live photo disabled: %v", bridgeErr)
		fa.view.SetCameraUnavailable(bridgeErr)
	} else {
		fa.bridge.SetFrameHandler(fa.view.HandleFrame)
	}

	fa.window.SetContent(fa.view.Content())
	fa.window.SetMainMenu(fa.createMainMenu())
	fa.window.Resize(fyne.NewSize(560, 860))
	fa.window.SetMaster()
	fa.window.SetOnClosed(fa.shutdown)
	return fa
}

// prefDetector calls the detection service currently set in preferences.
type prefDetector struct {
	cfg    *config.AppConfig
	client *http.Client
}

func (d *prefDetector) Detect(ctx context.Context, req *detect.Request) (*detect.Result, error) {
	c, err := detect.NewClient(d.cfg.GetDetectionURL(), d.client, detect.WithToken(d.cfg.GetDetectionToken))
	if err != nil {
		return nil, err
	}
	return c.Detect(ctx, req)
}

func (fa *FitApp) startBridge() error {
	page, err := fa.assetMgr.GetCameraPage()
	if err != nil {
		return fmt.Errorf("loading camera page: %w", err)
	}
	fa.bridge = capture.NewServer(fa.cfg.GetBridgePort(), page)
	return fa.bridge.Start()
}

// reloadPersonHinter loads the face cascade named in preferences. A missing
// or broken cascade turns the hint off.
func (fa *FitApp) reloadPersonHinter() {
	path := fa.cfg.GetFaceCascadePath()
	if path == "" {
		fa.sess.SetPersonHinter(nil)
		return
	}
	h, err := photo.LoadPersonHinter(path)
	if err != nil {
		log.Printf("Person hint disabled: %v", err)
		fa.sess.SetPersonHinter(nil)
		return
	}
	log.Printf("Person hint enabled with %s", path)
	fa.sess.SetPersonHinter(h)
}

func (fa *FitApp) createMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Preferences...", fa.CreatePreferencesWindow),
	)
	fa.helpMenu = fyne.NewMenu("Help",
		fyne.NewMenuItem("How to Measure", fa.showHelp),
		fyne.NewMenuItem("Check for Updates", func() {
			go fa.checkForUpdates(true)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("About "+config.AppName, fa.showAbout),
	)
	return fyne.NewMainMenu(fileMenu, fa.helpMenu)
}

func (fa *FitApp) showHelp() {
	text, err := fa.assetMgr.GetText(asset.HelpText)
	if err != nil {
		dialog.ShowError(err, fa.window)
		return
	}
	help := widget.NewRichTextFromMarkdown(text)
	help.Wrapping = fyne.TextWrapWord
	d := dialog.NewCustom("How to Measure", "Close", container.NewVScroll(help), fa.window)
	d.Resize(fyne.NewSize(480, 560))
	d.Show()
}

func (fa *FitApp) showAbout() {
	version := config.AppVersion
	if version == "" {
		version = "development build"
	}
	dialog.ShowInformation("About "+config.AppName,
		fmt.Sprintf("%s %s\nRecommends a clothing size from a full-body photo.", config.AppName, version),
		fa.window)
}

// checkForUpdates looks for a newer release. Failures and "up to date" are
// only shown when the user asked.
func (fa *FitApp) checkForUpdates(manual bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := util.CheckForUpdates(ctx, nil)
	if err != nil {
		log.Printf("Update check failed: %v", err)
		if manual {
			fyne.Do(func() { dialog.ShowError(err, fa.window) })
		}
		return
	}
	if !res.UpdateAvailable {
		log.Debugf("no update: running %s, latest %s", res.CurrentVersion, res.LatestVersion)
		if manual {
			fyne.Do(func() {
				dialog.ShowInformation("No Update", "You are running the latest version.", fa.window)
			})
		}
		return
	}

	log.Printf("Update available: %s -> %s", res.CurrentVersion, res.LatestVersion)
	fyne.Do(func() { fa.showUpdateAvailable(res) })
}

func (fa *FitApp) showUpdateAvailable(res *util.CheckForUpdatesResult) {
	fa.app.SendNotification(fyne.NewNotification(
		config.AppName+" update available",
		fmt.Sprintf("Version %s is available.", res.LatestVersion),
	))

	releaseURL, err := url.Parse(res.ReleaseURL)
	if err != nil || res.ReleaseURL == "" {
		return
	}
	label := updateMenuItemPrefix + res.LatestVersion
	if fa.updateItem == nil {
		fa.updateItem = fyne.NewMenuItem(label, nil)
		fa.helpMenu.Items = append(fa.helpMenu.Items, fyne.NewMenuItemSeparator(), fa.updateItem)
	}
	fa.updateItem.Label = label
	fa.updateItem.Action = func() {
		if err := fa.app.OpenURL(releaseURL); err != nil {
			log.Printf("Failed to open release page: %v", err)
		}
	}
	fa.helpMenu.Refresh()
}

func (fa *FitApp) shutdown() {
	fa.view.Close()
	if fa.bridge == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fa.bridge.Stop(ctx); err != nil {
		log.Printf("Camera bridge shutdown: %v", err)
	}
}

// Run shows the window and runs the application until it is closed.
func (fa *FitApp) Run() {
	if fa.cfg.GetUpdateCheckEnabled() {
		go func() {
			time.Sleep(updateCheckDelay)
			fa.checkForUpdates(false)
		}()
	}
	fa.window.ShowAndRun()
}
