package steps

import (
	"io"
)

// Healthz endpoint step implementations

func (fc *FeatureContext) iCallTheHealthzEndpoint() error {
	response, err := fc.dashboard.GetHealthz()
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) theResponseShouldContainStatusInformation() error {
	var data map[string]any
	err := fc.decodeBody(fc.response.Body, &data)
	fc.require.NoError(err)

	fc.require.Contains(data, "status", "Status should be present")
	fc.require.Contains(data, "VERSION", "VERSION should be present")
	fc.require.Contains(data, "COMMIT_HASH", "COMMIT_HASH should be present")

	status, ok := data["status"].(string)
	fc.require.True(ok, "Status should be a string")
	fc.require.Equal("success", status, "Status should be 'success'")

	fc.responseData = data
	return nil
}

func (fc *FeatureContext) theResponseShouldContainVersionInformation() error {
	version, ok := fc.responseData["VERSION"].(string)
	fc.require.True(ok, "VERSION should be a string")
	fc.require.NotEmpty(version, "VERSION should not be empty")

	return nil
}

func (fc *FeatureContext) iOpenTheDashboardPage() error {
	response, err := fc.dashboard.GetPage()
	if err != nil {
		return err
	}
	fc.response = response
	return nil
}

func (fc *FeatureContext) thePageShouldReferenceTheLiveFeed() error {
	defer fc.response.Body.Close()
	body, err := io.ReadAll(fc.response.Body)
	fc.require.NoError(err)
	fc.require.Contains(string(body), "/ws/readings")
	fc.require.Contains(string(body), "/api/latest")
	return nil
}
