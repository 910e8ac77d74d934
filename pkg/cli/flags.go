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

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/marathon-deployer/pkg/auth"
	"github.com/NVIDIA/marathon-deployer/pkg/config"
	"github.com/NVIDIA/marathon-deployer/pkg/credentials"
	"github.com/NVIDIA/marathon-deployer/pkg/defaults"
	"github.com/NVIDIA/marathon-deployer/pkg/deployer"
	"github.com/NVIDIA/marathon-deployer/pkg/header"
	"github.com/NVIDIA/marathon-deployer/pkg/k8s/client"
	"github.com/NVIDIA/marathon-deployer/pkg/marathon"
	"github.com/NVIDIA/marathon-deployer/pkg/serializer"
	"github.com/NVIDIA/marathon-deployer/pkg/template"
)

// Flags are built per command so parsed state is never shared.
func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Report destination: file path, ConfigMap URI (cm://namespace/name), or empty for stdout",
		Sources: cli.EnvVars("MDEPLOY_OUTPUT"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Value: string(serializer.FormatTable),
		Usage: fmt.Sprintf("Report format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Aliases: []string{"k"},
		Usage:   "Path to kubeconfig for k8s:// credential stores and cm:// reports (default: KUBECONFIG or ~/.kube/config)",
	}
}

func credentialStoreFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "credential-store",
		Usage:   "Credential store URI (file://, k8s://namespace/secret, awssm://region, keyring://service, memory://)",
		Sources: cli.EnvVars("MDEPLOY_CREDENTIAL_STORE"),
	}
}

func workdirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "workdir",
		Usage:   "Directory relative definition and rendered paths are resolved against",
		Sources: cli.EnvVars("MDEPLOY_WORKDIR", "WORKSPACE"),
	}
}

func varFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "var",
		Usage: "Template variable (format: NAME=value, can be repeated)",
	}
}

func varsFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "vars-file",
		Usage:   "Dotenv file of template variables",
		Sources: cli.EnvVars("MDEPLOY_VARS_FILE"),
	}
}

func insecureFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "insecure-skip-verify",
		Usage:   "Skip TLS verification for orchestrator requests",
		Sources: cli.EnvVars("MDEPLOY_INSECURE_SKIP_VERIFY"),
	}
}

func rateLimitFlag() cli.Flag {
	return &cli.FloatFlag{
		Name:  "rate-limit",
		Usage: "Maximum orchestrator requests per second (0 disables pacing)",
	}
}

// connectionFlags are shared by commands that talk to the orchestrator.
func connectionFlags() []cli.Flag {
	return []cli.Flag{credentialStoreFlag(), insecureFlag(), rateLimitFlag(), kubeconfigFlag()}
}

// templateFlags are shared by commands that merge definitions.
func templateFlags() []cli.Flag {
	return []cli.Flag{varFlag(), varsFileFlag(), workdirFlag()}
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q", f)
	}
	return f, nil
}

// kubeClient builds a client only when --kubeconfig is set; otherwise
// consumers fall back to discovery.
func kubeClient(cmd *cli.Command) (client.Interface, error) {
	path := cmd.String("kubeconfig")
	if path == "" {
		return nil, nil
	}
	return client.New(path)
}

func openStore(ctx context.Context, cmd *cli.Command, kube client.Interface) (auth.CredentialStore, error) {
	uri := cmd.String("credential-store")
	if uri == "" {
		return nil, nil
	}
	var opts []credentials.OpenOption
	if kube != nil {
		opts = append(opts, credentials.WithKubernetesClient(kube))
	}
	return credentials.Open(ctx, uri, opts...)
}

// hostAndVariables loads the job runner variables and the template context.
func hostAndVariables(cmd *cli.Command) (config.HostVariables, template.Variables, error) {
	host, err := config.LoadHostVariables()
	if err != nil {
		return host, nil, err
	}
	overrides, err := config.ParseKeyValues(cmd.StringSlice("var"))
	if err != nil {
		return host, nil, err
	}
	vars, err := config.BuildVariables(os.Environ(), host, cmd.String("vars-file"), overrides)
	if err != nil {
		return host, nil, err
	}
	return host, vars, nil
}

// newPipeline wires the deployer from command flags.
func newPipeline(ctx context.Context, cmd *cli.Command, kube client.Interface, extra ...deployer.Option) (*deployer.Pipeline, error) {
	host, vars, err := hostAndVariables(cmd)
	if err != nil {
		return nil, err
	}

	connector := &deployer.StoreConnector{
		ClientOptions: []marathon.Option{
			marathon.WithUserAgent(fmt.Sprintf("%s/%s", name, version)),
			marathon.WithTimeout(defaults.HTTPClientTimeout),
			marathon.WithInsecureSkipVerify(cmd.Bool("insecure-skip-verify")),
			marathon.WithRateLimit(rate.Limit(cmd.Float("rate-limit")), 1),
		},
	}
	if connector.Store, err = openStore(ctx, cmd, kube); err != nil {
		return nil, err
	}

	opts := []deployer.Option{
		deployer.WithConnector(connector),
		deployer.WithVariables(vars),
		deployer.WithHostVariables(host),
		deployer.WithWorkDir(cmd.String("workdir")),
	}
	return deployer.New(append(opts, extra...)...), nil
}

// writeReport serializes the result, wrapped in a report header, to the
// --output destination.
func writeReport(ctx context.Context, cmd *cli.Command, kube client.Interface, kind header.Kind, result serializer.Tabular) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	ser, err := serializer.NewReportWriter(format, cmd.String("output"), kube)
	if err != nil {
		return err
	}
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()
	return ser.Serialize(ctx, newReport(kind, cmd.Name, result))
}
