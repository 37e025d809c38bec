// Copyright 2025 ETH Zurich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bird

const birdTemplate = `router id {{ .RouterID }};
ipv4 table t_direct;
{{- if .Policy }}
define LOCAL_COMM = ({{ .ASN }}, 0, 0);
define CUSTOMER_COMM = ({{ .ASN }}, 1, 0);
define PEER_COMM = ({{ .ASN }}, 2, 0);
define PROVIDER_COMM = ({{ .ASN }}, 3, 0);
{{- end }}

protocol device {
}

protocol direct local_nets {
    ipv4 {
        table t_direct;
        import {{ .DirectImport }};
    };
{{- if .Interfaces }}
    interface {{ .Interfaces }};
{{- end }}
}

protocol kernel {
    ipv4 {
        export all;
    };
    learn;
}
{{- range .Pipes }}

protocol pipe {
    table {{ .From }};
    peer table {{ .Into }};
    import none;
    export all;
}
{{- end }}
{{- range .Sessions }}

protocol bgp {{ .Name }} {
    ipv4 {
        import {{ .Import }};
        export {{ .Export }};
    };
    local {{ .Local }} as {{ .LocalASN }};
    neighbor {{ .Peer }} as {{ .PeerASN }};
{{- if .RSClient }}
    rs client;
{{- end }}
{{- if .BFD }}
    bfd yes;
{{- end }}
}
{{- end }}
{{- with .BFD }}

protocol bfd {
{{- range .Interfaces }}
    interface "{{ . }}" {
    };
{{- end }}
{{- range .Neighbors }}
    neighbor {{ . }};
{{- end }}
}
{{- end }}
`
