// Copyright 2025 FloWorks
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

// Workflow is the subset of a workflow definition the insights service needs.
// Only the ID is required; Name is carried for log context.
type Workflow struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RunResult describes the outcome of a workflow execution as reported by the
// execution engine.
type RunResult struct {
	Finished bool   `json:"finished"`
	Status   string `json:"status"`
}

// RunStatusSuccess is the engine's status value for a successful run.
const RunStatusSuccess = "success"

// Succeeded reports whether the run finished with a success status.
func (r RunResult) Succeeded() bool {
	return r.Finished && r.Status == RunStatusSuccess
}

// NodeCredential references a credential attached to a workflow node.
type NodeCredential struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// WorkflowNode is a single step within a workflow definition.
type WorkflowNode struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Credentials []NodeCredential `json:"credentials,omitempty"`
}

// SoleCredential returns the node's credential when it declares exactly one,
// and false otherwise.
func (n WorkflowNode) SoleCredential() (NodeCredential, bool) {
	if len(n.Credentials) != 1 {
		return NodeCredential{}, false
	}
	return n.Credentials[0], true
}

// Project is an ownership grouping of workflows. Every project has exactly
// one resolvable owner user.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// User identifies a platform user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
