// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package entrypoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/repograph/pkg/model"
)

func TestLastTwoDottedParts(t *testing.T) {
	assert.Equal(t, "Service.handle", lastTwoDottedParts("app.routes.Service.handle"))
	assert.Equal(t, "", lastTwoDottedParts("handle"))
	assert.Equal(t, "", lastTwoDottedParts(""))
}

func TestNormalizeEntryPointType(t *testing.T) {
	assert.Equal(t, model.EntryEvent, normalizeEntryPointType("event"))
	assert.Equal(t, model.EntryEvent, normalizeEntryPointType("EVENT"))
	assert.Equal(t, model.EntryScheduler, normalizeEntryPointType("Scheduler"))
	assert.Equal(t, model.EntryHTTP, normalizeEntryPointType("http"))
	assert.Equal(t, model.EntryHTTP, normalizeEntryPointType("anything-else"))
}

func TestInferFrameworkHTTP(t *testing.T) {
	assert.Equal(t, "flask", inferFramework("app/routes/flask_app.py", model.EntryHTTP))
	assert.Equal(t, "fastapi", inferFramework("app/main_fastapi.py", model.EntryHTTP))
	assert.Equal(t, "spring-boot", inferFramework("controller/SpringController.java", model.EntryHTTP))
	assert.Equal(t, "unknown", inferFramework("lib/utils.py", model.EntryHTTP))
}

func TestInferFrameworkEvent(t *testing.T) {
	assert.Equal(t, "kafka", inferFramework("consumers/kafka_listener.py", model.EntryEvent))
	assert.Equal(t, "celery", inferFramework("tasks/celery_worker.py", model.EntryEvent))
}

func TestInferFrameworkScheduler(t *testing.T) {
	assert.Equal(t, "quartz", inferFramework("jobs/QuartzJob.java", model.EntryScheduler))
	assert.Equal(t, "apscheduler", inferFramework("jobs/apscheduler_runner.py", model.EntryScheduler))
}

func TestRemarshalRoundTrips(t *testing.T) {
	var generic interface{} = map[string]interface{}{
		"suggested_file_paths": []interface{}{"a.py", "b.py"},
	}

	var out filePathProposal
	require.NoError(t, remarshal(generic, &out))
	assert.Equal(t, []string{"a.py", "b.py"}, out.SuggestedFilePaths)
}

func TestRemarshalTypeMismatch(t *testing.T) {
	var generic interface{} = "not an object"
	var out filePathProposal
	assert.Error(t, remarshal(generic, &out))
}
