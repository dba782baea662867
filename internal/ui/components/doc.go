// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI pieces of the aurora TUI.

  - InactivityModal (inactivity_modal.go) - notice shown after an idle logout.
    Its only exit is OK, which returns to the login screen.
  - LoginForm (login_form.go) - email and password inputs.
  - Loading (loading.go) - neutral indicator shown while a guard decision is
    pending. It never reveals what it is guarding.
  - Header (header.go) - title bar with role, user id and idle countdown.
*/
package components
