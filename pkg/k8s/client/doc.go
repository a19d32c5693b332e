// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
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


// Package client builds Kubernetes clients for reading listener
// configuration from ConfigMaps.
//
// Kubeconfig resolution order:
//
//  1. explicit path (the --kubeconfig flag)
//  2. KUBECONFIG environment variable
//  3. ~/.kube/config when it exists
//  4. in-cluster service account
//
// Usage:
//
//	cs, _, err := client.New(kubeconfig)
//	if err != nil {
//	    return err
//	}
//	cm, err := cs.CoreV1().ConfigMaps("messaging").Get(ctx, "listeners", metav1.GetOptions{})
//
// Default caches one client built with automatic discovery for callers that
// do not take a kubeconfig. Tests pass a fake clientset wherever an
// Interface is accepted.
package client
