// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package supervisor provides process supervision for geotrail using suture v4.

The engine registers its detection Job as the single supervised service.
Tree wraps one suture.Supervisor with Erlang/OTP-style automatic restart,
failure-threshold backoff, and graceful shutdown, exactly as the root of a
larger service tree would, scaled down to that one service. Job.Serve only
blocks until its context ends; the pipeline itself runs on a goroutine
started by Job.Start, outside the supervisor, so a panic inside a phase is
not caught or restarted here.

# Key Features

Automatic Restart:
  - A supervised service whose Serve panics or returns is restarted
  - Failure-threshold backoff (FailureBackoff) prevents restart storms if a
    service fails repeatedly

Graceful Shutdown:
  - Remove/RemoveAndWait stop one service by its token, RemoveAndWait
    waiting up to a timeout for it to stop; the engine's Teardown does not
    call them and instead cancels the context passed to Serve
*/
package supervisor
