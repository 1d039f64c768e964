// Copyright 2024 Kelvin Clement Mwinuka
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/echovault/sugarclient/internal/constants"
	"github.com/sethvargo/go-retry"
)

// NewBackoff returns the base backoff for a reconnect strategy name.
func NewBackoff(strategy string, base time.Duration) (retry.Backoff, error) {
	if base <= 0 {
		return nil, fmt.Errorf("retry delay must be positive, got %s", base)
	}
	switch strings.ToLower(strategy) {
	case "", constants.ExponentialBackoff:
		return retry.NewExponential(base), nil
	case constants.ConstantBackoff:
		return retry.NewConstant(base), nil
	case constants.FibonacciBackoff:
		return retry.NewFibonacci(base), nil
	}
	return nil, fmt.Errorf("retry strategy %s not supported, use (%s, %s, %s)",
		strategy, constants.ConstantBackoff, constants.ExponentialBackoff, constants.FibonacciBackoff)
}

// RetryBackoff decorates b. A zero value leaves the corresponding limit unset,
// so maxRetries 0 retries forever.
func RetryBackoff(b retry.Backoff, maxRetries uint64, jitter, cappedDuration time.Duration) retry.Backoff {
	backoff := b
	if maxRetries > 0 {
		backoff = retry.WithMaxRetries(maxRetries, backoff)
	}
	if jitter > 0 {
		backoff = retry.WithJitter(jitter, backoff)
	}
	if cappedDuration > 0 {
		backoff = retry.WithCappedDuration(cappedDuration, backoff)
	}
	return backoff
}
