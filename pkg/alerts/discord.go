/*
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

package alerts

// DiscordTemplate renders an EventAlert as a Discord embed. Critical and
// error events are red, warnings yellow, the rest blue.
const DiscordTemplate = `{
  "embeds": [{
    "title": {{json (printf "%s %s" .alert.Program .alert.Event)}},
    "description": {{json .alert.Text}},
    "color": {{if or (eq .alert.Level "critical") (eq .alert.Level "error")}}15158332{{else if eq .alert.Level "warning"}}16776960{{else}}3447003{{end}},
    "timestamp": {{json .alert.Timestamp}},
    "fields": [{"name": "Level", "value": {{json .alert.Level}}, "inline": true}]
  }]
}`
