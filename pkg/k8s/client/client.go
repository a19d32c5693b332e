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


package client

import (
	"os"
	"path/filepath"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/NVIDIA/cloud-native-messaging/pkg/errors"
)

// UserAgent identifies cnm to the Kubernetes API server.
const UserAgent = "cnm"

// Interface is kubernetes.Interface, aliased so tests can pass a fake clientset.
type Interface = kubernetes.Interface

var (
	defaultOnce   sync.Once
	defaultClient Interface
	defaultErr    error
)

// Default returns a process-wide client built with automatic kubeconfig
// discovery. The first result, success or failure, is cached.
func Default() (Interface, error) {
	defaultOnce.Do(func() {
		defaultClient, _, defaultErr = New("")
	})
	return defaultClient, defaultErr
}

// New builds a client from kubeconfig. An empty kubeconfig resolves to
// $KUBECONFIG, then ~/.kube/config, then the in-cluster service account.
func New(kubeconfig string) (Interface, *rest.Config, error) {
	cfg, err := restConfig(ResolveKubeconfig(kubeconfig))
	if err != nil {
		return nil, nil, err
	}
	cfg.UserAgent = UserAgent

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, "failed to create kubernetes client", err)
	}
	return cs, cfg, nil
}

// ResolveKubeconfig returns the kubeconfig path New would use, or "" for
// in-cluster configuration.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		cfg, err := rest.InClusterConfig()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to get in-cluster config", err)
		}
		return cfg, nil
	}

	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to build kube config", err,
			map[string]any{"kubeconfig": kubeconfig})
	}
	return cfg, nil
}
