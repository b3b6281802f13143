package steps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"sensor-dashboard/test/functional/driver"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type FeatureContext struct {
	dashboard        *driver.Dashboard
	workDir          string
	response         *http.Response
	responseData     map[string]any
	responseListData []map[string]any
	viewer           *websocket.Conn
	require          *require.Assertions
	t                godog.TestingT
}

func NewFeatureContext() *FeatureContext {
	return &FeatureContext{}
}

func (fc *FeatureContext) RegisterSteps(ctx *godog.ScenarioContext) {
	// Generic steps
	ctx.Step(`^wait for (.*)$`, fc.waitForDuration)
	ctx.Then(`^the response status code should be (\d+)$`, fc.theResponseStatusCodeShouldBe)

	// Dashboard lifecycle steps
	ctx.Given(`^the dashboard is running with an empty log$`, fc.theDashboardIsRunningWithAnEmptyLog)
	ctx.Given(`^the log already contains:$`, fc.theLogAlreadyContains)
	ctx.Given(`^the dashboard is running$`, fc.theDashboardIsRunning)
	ctx.When(`^the dashboard restarts$`, fc.theDashboardRestarts)
	ctx.Given(`^the broker connection is down$`, fc.theBrokerConnectionIsDown)

	// Ingestion steps
	ctx.When(`^the sensor publishes '([^']*)'$`, fc.theSensorPublishes)
	ctx.When(`^the sensor publishes (\d+) readings$`, fc.theSensorPublishesReadings)

	// Reading steps
	ctx.When(`^I request the latest reading$`, fc.iRequestTheLatestReading)
	ctx.When(`^I request the history$`, fc.iRequestTheHistory)
	ctx.Then(`^the latest reading should have temperature ([\d.]+), humidity ([\d.]+) and light status "([^"]*)"$`, fc.theLatestReadingShouldHave)
	ctx.Then(`^the latest reading should have no timestamp$`, fc.theLatestReadingShouldHaveNoTimestamp)
	ctx.Then(`^the latest reading should have a timestamp$`, fc.theLatestReadingShouldHaveATimestamp)
	ctx.Then(`^the total records should be (\d+)$`, fc.theTotalRecordsShouldBe)
	ctx.Then(`^the broker should be reported as (connected|disconnected)$`, fc.theBrokerShouldBeReportedAs)
	ctx.Then(`^the history should contain (\d+) readings$`, fc.theHistoryShouldContainReadings)
	ctx.Then(`^the history should start at temperature ([\d.]+) and end at temperature ([\d.]+)$`, fc.theHistoryShouldStartAndEndAt)
	ctx.Then(`^the log file should contain (\d+) records$`, fc.theLogFileShouldContainRecords)

	// Live feed steps
	ctx.Given(`^a viewer is connected to the live feed$`, fc.aViewerIsConnectedToTheLiveFeed)
	ctx.Then(`^the viewer should receive a "([^"]*)" event with temperature ([\d.]+)$`, fc.theViewerShouldReceiveAnEventWithTemperature)

	// Health steps
	ctx.When(`^I call the healthz endpoint$`, fc.iCallTheHealthzEndpoint)
	ctx.Then(`^the response should contain status information$`, fc.theResponseShouldContainStatusInformation)
	ctx.Then(`^the response should contain version information$`, fc.theResponseShouldContainVersionInformation)
	ctx.When(`^I open the dashboard page$`, fc.iOpenTheDashboardPage)
	ctx.Then(`^the page should reference the live feed$`, fc.thePageShouldReferenceTheLiveFeed)

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.t = godog.T(ctx)
		fc.require = require.New(fc.t)

		fc.reset()
		workDir, err := os.MkdirTemp("", "sensor-dashboard-*")
		if err != nil {
			return ctx, err
		}
		fc.workDir = workDir
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.cleanup()
		return ctx, err
	})
}

func (fc *FeatureContext) reset() {
	fc.dashboard = nil
	fc.response = nil
	fc.responseData = nil
	fc.responseListData = nil
	fc.viewer = nil
	fc.workDir = ""
}

func (fc *FeatureContext) cleanup() {
	if fc.viewer != nil {
		fc.viewer.Close()
	}
	if fc.dashboard != nil {
		fc.dashboard.Stop()
	}
	if fc.workDir != "" {
		os.RemoveAll(fc.workDir)
	}
}

func (fc *FeatureContext) logPath() string {
	return filepath.Join(fc.workDir, "sensor_data.csv")
}

func (fc *FeatureContext) decodeBody(body io.ReadCloser, target any) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(target)
}
