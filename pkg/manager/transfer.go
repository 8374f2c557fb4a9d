/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package manager

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/CNES/opensand-sub000/pkg/archive"
)

// TransferFromCollector fetches the probe and event files accumulated by
// the collector and extracts them below dest. The collector starts a new
// storage folder for every transfer.
func (c *Controller) TransferFromCollector(ctx context.Context, dest string) error {
	c.mu.RLock()

	if len(c.collectors) == 0 {
		c.mu.RUnlock()
		return ErrNoCollector
	}

	addr := net.JoinHostPort(c.collectors[0].Addr().String(), strconv.Itoa(c.transferPort))
	c.mu.RUnlock()

	dialer := net.Dialer{Timeout: c.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to transfer server %s: %w", addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := archive.Receive(conn, dest); err != nil {
		return fmt.Errorf("transfer from %s: %w", addr, err)
	}

	log.Printf("Probe data from %s extracted to %s", addr, dest)

	return nil
}
