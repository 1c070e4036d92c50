// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sms delivers phone verification codes.

Sender is the single-method interface handlers depend on. Two
implementations exist:

  - TwilioSender posts to the Twilio Messages REST endpoint using a
    messaging service SID and API key basic auth.
  - LogSender writes the message to the log instead, for development
    and tests.

FromConfig selects between them based on whether Twilio credentials
are configured. The ALLOWED_PHONE_NUMBERS restriction is applied by
the caller, not here, so dev environments can still see codes for
numbers outside the allowlist.
*/
package sms
